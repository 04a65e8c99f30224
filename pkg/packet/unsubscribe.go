package packet

import (
	"fmt"
	"io"
)

// UnsubscribePayload is the UNSUBSCRIBE packet body: one or more topic
// filters to remove.
type UnsubscribePayload []string

// EncodedLength returns the payload's size in bytes on the wire.
func (p UnsubscribePayload) EncodedLength() int {
	n := 0
	for _, filter := range p {
		n += StringLength(len(filter))
	}
	return n
}

// Encode writes the payload to w.
func (p UnsubscribePayload) Encode(w io.Writer) error {
	for _, filter := range p {
		if err := WriteString(w, filter); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe represents an MQTT UNSUBSCRIBE packet. Its fixed header
// flags are reserved as 0010 and its payload must name at least one
// topic filter.
// MQTT 3.1.1 Section 3.10
type Unsubscribe struct {
	header   FixedHeader
	PacketID uint16
	payload  UnsubscribePayload
}

// NewUnsubscribe creates an UNSUBSCRIBE packet.
func NewUnsubscribe(id uint16, filters ...string) *Unsubscribe {
	u := &Unsubscribe{
		PacketID: id,
		payload:  UnsubscribePayload(filters),
	}
	u.header = NewFixedHeader(TypeUnsubscribe, uint32(2+u.payload.EncodedLength()))
	return u
}

// TopicFilters returns the filters to remove.
func (u *Unsubscribe) TopicFilters() []string { return u.payload }

// FixedHeader returns the packet's fixed header.
func (u *Unsubscribe) FixedHeader() FixedHeader { return u.header }

// Payload returns the topic filter list.
func (u *Unsubscribe) Payload() Payload { return u.payload }

// EncodeVariableHeaders writes the packet identifier.
func (u *Unsubscribe) EncodeVariableHeaders(w io.Writer) error {
	if err := WriteUint16(w, u.PacketID); err != nil {
		return ioErr(TypeUnsubscribe, err)
	}
	return nil
}

// VariableHeadersLength returns 2.
func (u *Unsubscribe) VariableHeadersLength() int { return 2 }

// DecodeUnsubscribe decodes an UNSUBSCRIBE body.
func DecodeUnsubscribe(r io.Reader, fh FixedHeader) (*Unsubscribe, error) {
	if err := checkFlags(fh, 0x02); err != nil {
		return nil, err
	}

	id, err := ReadUint16(r)
	if err != nil {
		return nil, ioErr(TypeUnsubscribe, err)
	}
	if id == 0 {
		return nil, variableHeaderErr(TypeUnsubscribe, ErrInvalidPacketID)
	}

	if fh.RemainingLength < 2 {
		return nil, malformedErr(TypeUnsubscribe,
			fmt.Errorf("%w: remaining length shorter than variable headers", ErrMalformedPacket))
	}
	body := &boundedReader{r: r, n: int64(fh.RemainingLength - 2)}

	var filters UnsubscribePayload
	for {
		filter, err := ReadString(body)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stringOrIOErr(TypeUnsubscribe, err)
		}
		filters = append(filters, filter)
	}
	if body.n > 0 {
		return nil, ioErr(TypeUnsubscribe, io.ErrUnexpectedEOF)
	}
	if len(filters) == 0 {
		return nil, payloadErr(TypeUnsubscribe,
			fmt.Errorf("%w: empty topic filter list", ErrMalformedPacket))
	}

	return &Unsubscribe{header: fh, PacketID: id, payload: filters}, nil
}

// Unsuback represents an MQTT UNSUBACK packet: a packet identifier and
// nothing else.
// MQTT 3.1.1 Section 3.11
type Unsuback struct {
	header   FixedHeader
	PacketID uint16
}

// NewUnsuback creates an UNSUBACK packet.
func NewUnsuback(id uint16) *Unsuback {
	return &Unsuback{header: NewFixedHeader(TypeUnsuback, 2), PacketID: id}
}

// FixedHeader returns the packet's fixed header.
func (u *Unsuback) FixedHeader() FixedHeader { return u.header }

// Payload returns the unit payload.
func (u *Unsuback) Payload() Payload { return EmptyPayload{} }

// EncodeVariableHeaders writes the packet identifier.
func (u *Unsuback) EncodeVariableHeaders(w io.Writer) error {
	return encodeAckVariableHeaders(TypeUnsuback, w, u.PacketID)
}

// VariableHeadersLength returns 2.
func (u *Unsuback) VariableHeadersLength() int { return 2 }

// DecodeUnsuback decodes an UNSUBACK body.
func DecodeUnsuback(r io.Reader, fh FixedHeader) (*Unsuback, error) {
	id, err := decodeAckBody(r, fh, 0)
	if err != nil {
		return nil, err
	}
	return &Unsuback{header: fh, PacketID: id}, nil
}
