package packet

import (
	"fmt"
	"io"
)

// Pingreq represents an MQTT PINGREQ packet. It has no variable header
// and no payload.
// MQTT 3.1.1 Section 3.12
type Pingreq struct {
	header FixedHeader
}

// NewPingreq creates a PINGREQ packet.
func NewPingreq() *Pingreq {
	return &Pingreq{header: NewFixedHeader(TypePingreq, 0)}
}

// FixedHeader returns the packet's fixed header.
func (p *Pingreq) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Pingreq) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes nothing.
func (p *Pingreq) EncodeVariableHeaders(io.Writer) error { return nil }

// VariableHeadersLength returns 0.
func (p *Pingreq) VariableHeadersLength() int { return 0 }

// DecodePingreq decodes a PINGREQ body.
func DecodePingreq(_ io.Reader, fh FixedHeader) (*Pingreq, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}
	if fh.RemainingLength != 0 {
		return nil, malformedErr(TypePingreq,
			fmt.Errorf("%w: nonzero remaining length %d", ErrMalformedPacket, fh.RemainingLength))
	}
	return &Pingreq{header: fh}, nil
}

// Pingresp represents an MQTT PINGRESP packet. It has no variable
// header and no payload.
// MQTT 3.1.1 Section 3.13
type Pingresp struct {
	header FixedHeader
}

// NewPingresp creates a PINGRESP packet.
func NewPingresp() *Pingresp {
	return &Pingresp{header: NewFixedHeader(TypePingresp, 0)}
}

// FixedHeader returns the packet's fixed header.
func (p *Pingresp) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Pingresp) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes nothing.
func (p *Pingresp) EncodeVariableHeaders(io.Writer) error { return nil }

// VariableHeadersLength returns 0.
func (p *Pingresp) VariableHeadersLength() int { return 0 }

// DecodePingresp decodes a PINGRESP body.
func DecodePingresp(_ io.Reader, fh FixedHeader) (*Pingresp, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}
	if fh.RemainingLength != 0 {
		return nil, malformedErr(TypePingresp,
			fmt.Errorf("%w: nonzero remaining length %d", ErrMalformedPacket, fh.RemainingLength))
	}
	return &Pingresp{header: fh}, nil
}
