package packet

import (
	"fmt"
	"io"
)

// Disconnect represents an MQTT DISCONNECT packet, the final packet a
// client sends before closing the network connection. It carries no
// variable header and no payload, making it the minimal instance of the
// Packet contract.
// MQTT 3.1.1 Section 3.14
type Disconnect struct {
	header FixedHeader
}

// NewDisconnect creates a DISCONNECT packet.
func NewDisconnect() *Disconnect {
	return &Disconnect{header: NewFixedHeader(TypeDisconnect, 0)}
}

// FixedHeader returns the packet's fixed header.
func (d *Disconnect) FixedHeader() FixedHeader { return d.header }

// Payload returns the unit payload.
func (d *Disconnect) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes nothing; DISCONNECT has no variable
// header.
func (d *Disconnect) EncodeVariableHeaders(io.Writer) error { return nil }

// VariableHeadersLength returns 0.
func (d *Disconnect) VariableHeadersLength() int { return 0 }

// DecodeDisconnect decodes a DISCONNECT body. There is nothing to read;
// the supplied fixed header is adopted as-is.
func DecodeDisconnect(_ io.Reader, fh FixedHeader) (*Disconnect, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}
	if fh.RemainingLength != 0 {
		return nil, malformedErr(TypeDisconnect,
			fmt.Errorf("%w: nonzero remaining length %d", ErrMalformedPacket, fh.RemainingLength))
	}
	return &Disconnect{header: fh}, nil
}
