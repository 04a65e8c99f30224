package packet

import (
	"fmt"
	"io"
)

// ConnectReturnCode is the CONNACK variable header return code.
// MQTT 3.1.1 Section 3.2.2.3
type ConnectReturnCode byte

const (
	ConnectionAccepted          ConnectReturnCode = 0 // Connection accepted
	UnacceptableProtocolVersion ConnectReturnCode = 1 // Unacceptable protocol version
	IdentifierRejected          ConnectReturnCode = 2 // Client identifier rejected
	ServerUnavailable           ConnectReturnCode = 3 // Server unavailable
	BadUsernameOrPassword       ConnectReturnCode = 4 // Bad user name or password
	NotAuthorized               ConnectReturnCode = 5 // Not authorized
)

// Valid returns true if the return code is protocol-defined.
func (c ConnectReturnCode) Valid() bool {
	return c <= NotAuthorized
}

// String returns the string representation of the return code.
func (c ConnectReturnCode) String() string {
	switch c {
	case ConnectionAccepted:
		return "connection accepted"
	case UnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case IdentifierRejected:
		return "identifier rejected"
	case ServerUnavailable:
		return "server unavailable"
	case BadUsernameOrPassword:
		return "bad user name or password"
	case NotAuthorized:
		return "not authorized"
	default:
		return "reserved"
	}
}

// Connack represents an MQTT CONNACK packet, the server's response to a
// CONNECT. Variable header: acknowledge flags and return code. No
// payload.
// MQTT 3.1.1 Section 3.2
type Connack struct {
	header         FixedHeader
	SessionPresent bool
	ReturnCode     ConnectReturnCode
}

// NewConnack creates a CONNACK packet.
func NewConnack(sessionPresent bool, code ConnectReturnCode) *Connack {
	return &Connack{
		header:         NewFixedHeader(TypeConnack, 2),
		SessionPresent: sessionPresent,
		ReturnCode:     code,
	}
}

// FixedHeader returns the packet's fixed header.
func (c *Connack) FixedHeader() FixedHeader { return c.header }

// Payload returns the unit payload.
func (c *Connack) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the acknowledge flags byte and the
// return code.
func (c *Connack) EncodeVariableHeaders(w io.Writer) error {
	var ack byte
	if c.SessionPresent {
		ack = 0x01
	}
	if err := WriteUint8(w, ack); err != nil {
		return ioErr(TypeConnack, err)
	}
	if err := WriteUint8(w, byte(c.ReturnCode)); err != nil {
		return ioErr(TypeConnack, err)
	}
	return nil
}

// VariableHeadersLength returns 2.
func (c *Connack) VariableHeadersLength() int { return 2 }

// DecodeConnack decodes a CONNACK body.
func DecodeConnack(r io.Reader, fh FixedHeader) (*Connack, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}
	if fh.RemainingLength != 2 {
		return nil, malformedErr(TypeConnack,
			fmt.Errorf("%w: remaining length %d, want 2", ErrMalformedPacket, fh.RemainingLength))
	}

	ack, err := ReadUint8(r)
	if err != nil {
		return nil, ioErr(TypeConnack, err)
	}
	// Bits 7-1 of the acknowledge flags are reserved and must be 0.
	if ack&0xFE != 0 {
		return nil, malformedErr(TypeConnack,
			fmt.Errorf("%w: reserved acknowledge flag bits 0x%X", ErrMalformedPacket, ack))
	}

	code, err := ReadUint8(r)
	if err != nil {
		return nil, ioErr(TypeConnack, err)
	}
	rc := ConnectReturnCode(code)
	if !rc.Valid() {
		return nil, variableHeaderErr(TypeConnack,
			fmt.Errorf("%w: 0x%X", ErrInvalidReturnCode, code))
	}

	return &Connack{
		header:         fh,
		SessionPresent: ack&0x01 != 0,
		ReturnCode:     rc,
	}, nil
}
