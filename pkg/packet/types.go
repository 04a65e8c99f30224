// Package packet implements the MQTT 3.1.1 control packet wire format.
// Every packet kind implements the narrow Packet contract; framing,
// length accounting, and dispatch by control type are shared and never
// duplicated per kind.
package packet

// ControlType represents an MQTT control packet type.
type ControlType byte

// MQTT Control Packet types as defined in MQTT 3.1.1 Section 2.2.1
const (
	TypeReserved0   ControlType = 0  // Reserved
	TypeConnect     ControlType = 1  // Client request to connect to Server
	TypeConnack     ControlType = 2  // Connect acknowledgment
	TypePublish     ControlType = 3  // Publish message
	TypePuback      ControlType = 4  // Publish acknowledgment (QoS 1)
	TypePubrec      ControlType = 5  // Publish received (QoS 2 part 1)
	TypePubrel      ControlType = 6  // Publish release (QoS 2 part 2)
	TypePubcomp     ControlType = 7  // Publish complete (QoS 2 part 3)
	TypeSubscribe   ControlType = 8  // Subscribe request
	TypeSuback      ControlType = 9  // Subscribe acknowledgment
	TypeUnsubscribe ControlType = 10 // Unsubscribe request
	TypeUnsuback    ControlType = 11 // Unsubscribe acknowledgment
	TypePingreq     ControlType = 12 // PING request
	TypePingresp    ControlType = 13 // PING response
	TypeDisconnect  ControlType = 14 // Disconnect notification
)

// String returns the string representation of the control type.
func (t ControlType) String() string {
	switch t {
	case TypeConnect:
		return "CONNECT"
	case TypeConnack:
		return "CONNACK"
	case TypePublish:
		return "PUBLISH"
	case TypePuback:
		return "PUBACK"
	case TypePubrec:
		return "PUBREC"
	case TypePubrel:
		return "PUBREL"
	case TypePubcomp:
		return "PUBCOMP"
	case TypeSubscribe:
		return "SUBSCRIBE"
	case TypeSuback:
		return "SUBACK"
	case TypeUnsubscribe:
		return "UNSUBSCRIBE"
	case TypeUnsuback:
		return "UNSUBACK"
	case TypePingreq:
		return "PINGREQ"
	case TypePingresp:
		return "PINGRESP"
	case TypeDisconnect:
		return "DISCONNECT"
	default:
		return "RESERVED"
	}
}

// Valid returns true if the control type has a protocol-defined mapping.
func (t ControlType) Valid() bool {
	return t >= TypeConnect && t <= TypeDisconnect
}

// DefaultFlags returns the fixed flag bits MQTT 3.1.1 Section 2.2.2
// assigns to the control type. PUBLISH flags are owned by the Publish
// packet itself and default to 0 here.
func (t ControlType) DefaultFlags() byte {
	switch t {
	case TypePubrel, TypeSubscribe, TypeUnsubscribe:
		return 0x02
	default:
		return 0
	}
}

// PacketType is a control type together with its four fixed header
// flag bits, the first byte of every packet on the wire.
type PacketType struct {
	ControlType ControlType
	Flags       byte
}

// NewPacketType builds a PacketType from a control type using its
// documented default flags.
func NewPacketType(t ControlType) PacketType {
	return PacketType{ControlType: t, Flags: t.DefaultFlags()}
}

// NewPacketTypeWithFlags builds a PacketType with an explicit flag
// nibble. Only the low four bits of flags are kept.
func NewPacketTypeWithFlags(t ControlType, flags byte) PacketType {
	return PacketType{ControlType: t, Flags: flags & 0x0F}
}

// PacketTypeFromByte splits a raw tag byte into control type and flags.
// The control type is not validated here; unmapped nibbles are caught
// by the fixed header decoder so the dispatcher can report them with
// the full parsed header.
func PacketTypeFromByte(b byte) PacketType {
	return PacketType{
		ControlType: ControlType(b >> 4),
		Flags:       b & 0x0F,
	}
}

// Byte returns the wire encoding of the packet type.
func (p PacketType) Byte() byte {
	return byte(p.ControlType)<<4 | (p.Flags & 0x0F)
}

// QoS represents MQTT Quality of Service level.
type QoS byte

const (
	QoS0 QoS = 0 // At most once delivery
	QoS1 QoS = 1 // At least once delivery
	QoS2 QoS = 2 // Exactly once delivery
)

// Valid returns true if the QoS level is valid.
func (q QoS) Valid() bool {
	return q <= QoS2
}

// String returns the string representation of the QoS level.
func (q QoS) String() string {
	switch q {
	case QoS0:
		return "QoS0"
	case QoS1:
		return "QoS1"
	case QoS2:
		return "QoS2"
	default:
		return "invalid"
	}
}

// MaxRemainingLength is the maximum remaining length value (256MB - 1).
const MaxRemainingLength = 268435455
