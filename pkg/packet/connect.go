package packet

import (
	"fmt"
	"io"
)

const (
	protocolName  = "MQTT"
	protocolLevel = 4 // MQTT 3.1.1
)

// Connect flag bit positions. MQTT 3.1.1 Section 3.1.2.3
const (
	connectFlagCleanSession = 1 << 1
	connectFlagWill         = 1 << 2
	connectFlagWillRetain   = 1 << 5
	connectFlagPassword     = 1 << 6
	connectFlagUsername     = 1 << 7
)

// ConnectPayload is the CONNECT packet body: the client identifier
// followed by the optional will, username, and password fields. Which
// optional fields are present is governed by the connect flags in the
// variable header; the mirrors below are kept in sync by the packet's
// constructor, setters, and decoder.
type ConnectPayload struct {
	ClientID    string
	WillTopic   string
	WillMessage []byte
	Username    string
	Password    []byte

	will     bool
	username bool
	password bool
}

// EncodedLength returns the payload's size in bytes on the wire.
func (p ConnectPayload) EncodedLength() int {
	n := StringLength(len(p.ClientID))
	if p.will {
		n += StringLength(len(p.WillTopic))
		n += StringLength(len(p.WillMessage))
	}
	if p.username {
		n += StringLength(len(p.Username))
	}
	if p.password {
		n += StringLength(len(p.Password))
	}
	return n
}

// Encode writes the payload to w.
func (p ConnectPayload) Encode(w io.Writer) error {
	if err := WriteString(w, p.ClientID); err != nil {
		return err
	}
	if p.will {
		if err := WriteString(w, p.WillTopic); err != nil {
			return err
		}
		if err := WriteBytes(w, p.WillMessage); err != nil {
			return err
		}
	}
	if p.username {
		if err := WriteString(w, p.Username); err != nil {
			return err
		}
	}
	if p.password {
		if err := WriteBytes(w, p.Password); err != nil {
			return err
		}
	}
	return nil
}

// Connect represents an MQTT CONNECT packet, the first packet a client
// sends on a new network connection.
// MQTT 3.1.1 Section 3.1
type Connect struct {
	header FixedHeader

	CleanSession bool
	WillQoS      QoS
	WillRetain   bool
	KeepAlive    uint16

	payload ConnectPayload
}

// NewConnect creates a CONNECT packet for the given client identifier
// with a clean session and no optional fields.
func NewConnect(clientID string) *Connect {
	c := &Connect{
		CleanSession: true,
		payload:      ConnectPayload{ClientID: clientID},
	}
	c.header = NewFixedHeader(TypeConnect, 0)
	c.recomputeRemainingLength()
	return c
}

func (c *Connect) recomputeRemainingLength() {
	c.header.RemainingLength = uint32(c.VariableHeadersLength() + c.payload.EncodedLength())
}

// SetWill attaches a will message to the packet.
func (c *Connect) SetWill(topic string, message []byte, qos QoS, retain bool) {
	c.payload.will = true
	c.payload.WillTopic = topic
	c.payload.WillMessage = message
	c.WillQoS = qos
	c.WillRetain = retain
	c.recomputeRemainingLength()
}

// SetUsername attaches a user name to the packet.
func (c *Connect) SetUsername(username string) {
	c.payload.username = true
	c.payload.Username = username
	c.recomputeRemainingLength()
}

// SetPassword attaches a password to the packet.
func (c *Connect) SetPassword(password []byte) {
	c.payload.password = true
	c.payload.Password = password
	c.recomputeRemainingLength()
}

// SetKeepAlive sets the keep alive interval in seconds.
func (c *Connect) SetKeepAlive(seconds uint16) {
	c.KeepAlive = seconds
}

// ClientID returns the client identifier.
func (c *Connect) ClientID() string { return c.payload.ClientID }

// Will returns the will topic and message, if a will is present.
func (c *Connect) Will() (topic string, message []byte, ok bool) {
	return c.payload.WillTopic, c.payload.WillMessage, c.payload.will
}

// Username returns the user name, if present.
func (c *Connect) Username() (string, bool) {
	return c.payload.Username, c.payload.username
}

// Password returns the password, if present.
func (c *Connect) Password() ([]byte, bool) {
	return c.payload.Password, c.payload.password
}

// FixedHeader returns the packet's fixed header.
func (c *Connect) FixedHeader() FixedHeader { return c.header }

// Payload returns the CONNECT payload.
func (c *Connect) Payload() Payload { return c.payload }

func (c *Connect) connectFlags() byte {
	var flags byte
	if c.CleanSession {
		flags |= connectFlagCleanSession
	}
	if c.payload.will {
		flags |= connectFlagWill
		flags |= byte(c.WillQoS) << 3
		if c.WillRetain {
			flags |= connectFlagWillRetain
		}
	}
	if c.payload.username {
		flags |= connectFlagUsername
	}
	if c.payload.password {
		flags |= connectFlagPassword
	}
	return flags
}

// EncodeVariableHeaders writes the protocol name, protocol level,
// connect flags, and keep alive interval.
func (c *Connect) EncodeVariableHeaders(w io.Writer) error {
	if err := WriteString(w, protocolName); err != nil {
		return stringOrIOErr(TypeConnect, err)
	}
	if err := WriteUint8(w, protocolLevel); err != nil {
		return ioErr(TypeConnect, err)
	}
	if err := WriteUint8(w, c.connectFlags()); err != nil {
		return ioErr(TypeConnect, err)
	}
	if err := WriteUint16(w, c.KeepAlive); err != nil {
		return ioErr(TypeConnect, err)
	}
	return nil
}

// VariableHeadersLength returns the encoded variable header size:
// protocol name, level, connect flags, and keep alive.
func (c *Connect) VariableHeadersLength() int {
	return StringLength(len(protocolName)) + 1 + 1 + 2
}

// DecodeConnect decodes a CONNECT body.
func DecodeConnect(r io.Reader, fh FixedHeader) (*Connect, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}

	name, err := ReadString(r)
	if err != nil {
		return nil, stringOrIOErr(TypeConnect, err)
	}
	if name != protocolName {
		return nil, variableHeaderErr(TypeConnect,
			fmt.Errorf("%w: %q", ErrInvalidProtocolName, name))
	}

	level, err := ReadUint8(r)
	if err != nil {
		return nil, ioErr(TypeConnect, err)
	}
	if level != protocolLevel {
		return nil, variableHeaderErr(TypeConnect,
			fmt.Errorf("%w: %d", ErrInvalidProtocolLevel, level))
	}

	flags, err := ReadUint8(r)
	if err != nil {
		return nil, ioErr(TypeConnect, err)
	}
	// Bit 0 of the connect flags is reserved and must be 0.
	if flags&0x01 != 0 {
		return nil, malformedErr(TypeConnect,
			fmt.Errorf("%w: reserved connect flag bit set", ErrMalformedPacket))
	}

	c := &Connect{header: fh}
	c.CleanSession = flags&connectFlagCleanSession != 0
	c.payload.will = flags&connectFlagWill != 0
	c.WillQoS = QoS((flags >> 3) & 0x03)
	c.WillRetain = flags&connectFlagWillRetain != 0
	c.payload.username = flags&connectFlagUsername != 0
	c.payload.password = flags&connectFlagPassword != 0

	if !c.payload.will {
		if c.WillQoS != QoS0 || c.WillRetain {
			return nil, malformedErr(TypeConnect,
				fmt.Errorf("%w: will flags without will", ErrMalformedPacket))
		}
	} else if !c.WillQoS.Valid() {
		return nil, variableHeaderErr(TypeConnect,
			fmt.Errorf("%w: will QoS %d", ErrInvalidQoS, c.WillQoS))
	}
	if c.payload.password && !c.payload.username {
		return nil, malformedErr(TypeConnect,
			fmt.Errorf("%w: password flag without username flag", ErrMalformedPacket))
	}

	c.KeepAlive, err = ReadUint16(r)
	if err != nil {
		return nil, ioErr(TypeConnect, err)
	}

	c.payload.ClientID, err = ReadString(r)
	if err != nil {
		return nil, stringOrIOErr(TypeConnect, err)
	}

	if c.payload.will {
		c.payload.WillTopic, err = ReadString(r)
		if err != nil {
			return nil, stringOrIOErr(TypeConnect, err)
		}
		c.payload.WillMessage, err = ReadBytes(r)
		if err != nil {
			return nil, ioErr(TypeConnect, err)
		}
	}
	if c.payload.username {
		c.payload.Username, err = ReadString(r)
		if err != nil {
			return nil, stringOrIOErr(TypeConnect, err)
		}
	}
	if c.payload.password {
		c.payload.Password, err = ReadBytes(r)
		if err != nil {
			return nil, ioErr(TypeConnect, err)
		}
	}

	return c, nil
}
