package packet

import (
	"fmt"
	"io"
)

// The four publish acknowledgment packets share one layout: a two byte
// packet identifier variable header and no payload. The helpers below
// hold that layout once; each kind stays its own type in the sum.

func decodeAckBody(r io.Reader, fh FixedHeader, wantFlags byte) (uint16, error) {
	if err := checkFlags(fh, wantFlags); err != nil {
		return 0, err
	}
	t := fh.PacketType.ControlType
	if fh.RemainingLength != 2 {
		return 0, malformedErr(t,
			fmt.Errorf("%w: remaining length %d, want 2", ErrMalformedPacket, fh.RemainingLength))
	}
	id, err := ReadUint16(r)
	if err != nil {
		return 0, ioErr(t, err)
	}
	return id, nil
}

func encodeAckVariableHeaders(t ControlType, w io.Writer, id uint16) error {
	if err := WriteUint16(w, id); err != nil {
		return ioErr(t, err)
	}
	return nil
}

// Puback represents an MQTT PUBACK packet, the response to a QoS 1
// PUBLISH.
// MQTT 3.1.1 Section 3.4
type Puback struct {
	header   FixedHeader
	PacketID uint16
}

// NewPuback creates a PUBACK packet.
func NewPuback(id uint16) *Puback {
	return &Puback{header: NewFixedHeader(TypePuback, 2), PacketID: id}
}

// FixedHeader returns the packet's fixed header.
func (p *Puback) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Puback) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the packet identifier.
func (p *Puback) EncodeVariableHeaders(w io.Writer) error {
	return encodeAckVariableHeaders(TypePuback, w, p.PacketID)
}

// VariableHeadersLength returns 2.
func (p *Puback) VariableHeadersLength() int { return 2 }

// DecodePuback decodes a PUBACK body.
func DecodePuback(r io.Reader, fh FixedHeader) (*Puback, error) {
	id, err := decodeAckBody(r, fh, 0)
	if err != nil {
		return nil, err
	}
	return &Puback{header: fh, PacketID: id}, nil
}

// Pubrec represents an MQTT PUBREC packet, the first response in the
// QoS 2 exchange.
// MQTT 3.1.1 Section 3.5
type Pubrec struct {
	header   FixedHeader
	PacketID uint16
}

// NewPubrec creates a PUBREC packet.
func NewPubrec(id uint16) *Pubrec {
	return &Pubrec{header: NewFixedHeader(TypePubrec, 2), PacketID: id}
}

// FixedHeader returns the packet's fixed header.
func (p *Pubrec) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Pubrec) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the packet identifier.
func (p *Pubrec) EncodeVariableHeaders(w io.Writer) error {
	return encodeAckVariableHeaders(TypePubrec, w, p.PacketID)
}

// VariableHeadersLength returns 2.
func (p *Pubrec) VariableHeadersLength() int { return 2 }

// DecodePubrec decodes a PUBREC body.
func DecodePubrec(r io.Reader, fh FixedHeader) (*Pubrec, error) {
	id, err := decodeAckBody(r, fh, 0)
	if err != nil {
		return nil, err
	}
	return &Pubrec{header: fh, PacketID: id}, nil
}

// Pubrel represents an MQTT PUBREL packet, the second step of the QoS 2
// exchange. Its fixed header flags are reserved as 0010.
// MQTT 3.1.1 Section 3.6
type Pubrel struct {
	header   FixedHeader
	PacketID uint16
}

// NewPubrel creates a PUBREL packet.
func NewPubrel(id uint16) *Pubrel {
	return &Pubrel{header: NewFixedHeader(TypePubrel, 2), PacketID: id}
}

// FixedHeader returns the packet's fixed header.
func (p *Pubrel) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Pubrel) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the packet identifier.
func (p *Pubrel) EncodeVariableHeaders(w io.Writer) error {
	return encodeAckVariableHeaders(TypePubrel, w, p.PacketID)
}

// VariableHeadersLength returns 2.
func (p *Pubrel) VariableHeadersLength() int { return 2 }

// DecodePubrel decodes a PUBREL body.
func DecodePubrel(r io.Reader, fh FixedHeader) (*Pubrel, error) {
	id, err := decodeAckBody(r, fh, 0x02)
	if err != nil {
		return nil, err
	}
	return &Pubrel{header: fh, PacketID: id}, nil
}

// Pubcomp represents an MQTT PUBCOMP packet, completing the QoS 2
// exchange.
// MQTT 3.1.1 Section 3.7
type Pubcomp struct {
	header   FixedHeader
	PacketID uint16
}

// NewPubcomp creates a PUBCOMP packet.
func NewPubcomp(id uint16) *Pubcomp {
	return &Pubcomp{header: NewFixedHeader(TypePubcomp, 2), PacketID: id}
}

// FixedHeader returns the packet's fixed header.
func (p *Pubcomp) FixedHeader() FixedHeader { return p.header }

// Payload returns the unit payload.
func (p *Pubcomp) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the packet identifier.
func (p *Pubcomp) EncodeVariableHeaders(w io.Writer) error {
	return encodeAckVariableHeaders(TypePubcomp, w, p.PacketID)
}

// VariableHeadersLength returns 2.
func (p *Pubcomp) VariableHeadersLength() int { return 2 }

// DecodePubcomp decodes a PUBCOMP body.
func DecodePubcomp(r io.Reader, fh FixedHeader) (*Pubcomp, error) {
	id, err := decodeAckBody(r, fh, 0)
	if err != nil {
		return nil, err
	}
	return &Pubcomp{header: fh, PacketID: id}, nil
}
