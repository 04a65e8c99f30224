package packet

import (
	"fmt"
	"io"
)

// Subscription is a single topic filter with its requested QoS.
type Subscription struct {
	TopicFilter string
	QoS         QoS
}

// SubscribePayload is the SUBSCRIBE packet body: one or more
// subscriptions.
type SubscribePayload []Subscription

// EncodedLength returns the payload's size in bytes on the wire.
func (p SubscribePayload) EncodedLength() int {
	n := 0
	for _, sub := range p {
		n += StringLength(len(sub.TopicFilter)) + 1
	}
	return n
}

// Encode writes the payload to w.
func (p SubscribePayload) Encode(w io.Writer) error {
	for _, sub := range p {
		if err := WriteString(w, sub.TopicFilter); err != nil {
			return err
		}
		if err := WriteUint8(w, byte(sub.QoS)); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe represents an MQTT SUBSCRIBE packet. Its fixed header flags
// are reserved as 0010 and its payload must name at least one topic
// filter.
// MQTT 3.1.1 Section 3.8
type Subscribe struct {
	header   FixedHeader
	PacketID uint16
	payload  SubscribePayload
}

// NewSubscribe creates a SUBSCRIBE packet.
func NewSubscribe(id uint16, subscriptions ...Subscription) *Subscribe {
	s := &Subscribe{
		PacketID: id,
		payload:  SubscribePayload(subscriptions),
	}
	s.header = NewFixedHeader(TypeSubscribe, uint32(2+s.payload.EncodedLength()))
	return s
}

// Subscriptions returns the requested subscriptions.
func (s *Subscribe) Subscriptions() []Subscription { return s.payload }

// FixedHeader returns the packet's fixed header.
func (s *Subscribe) FixedHeader() FixedHeader { return s.header }

// Payload returns the subscription list.
func (s *Subscribe) Payload() Payload { return s.payload }

// EncodeVariableHeaders writes the packet identifier.
func (s *Subscribe) EncodeVariableHeaders(w io.Writer) error {
	if err := WriteUint16(w, s.PacketID); err != nil {
		return ioErr(TypeSubscribe, err)
	}
	return nil
}

// VariableHeadersLength returns 2.
func (s *Subscribe) VariableHeadersLength() int { return 2 }

// DecodeSubscribe decodes a SUBSCRIBE body.
func DecodeSubscribe(r io.Reader, fh FixedHeader) (*Subscribe, error) {
	if err := checkFlags(fh, 0x02); err != nil {
		return nil, err
	}

	id, err := ReadUint16(r)
	if err != nil {
		return nil, ioErr(TypeSubscribe, err)
	}
	if id == 0 {
		return nil, variableHeaderErr(TypeSubscribe, ErrInvalidPacketID)
	}

	if fh.RemainingLength < 2 {
		return nil, malformedErr(TypeSubscribe,
			fmt.Errorf("%w: remaining length shorter than variable headers", ErrMalformedPacket))
	}
	body := &boundedReader{r: r, n: int64(fh.RemainingLength - 2)}

	var subs SubscribePayload
	for {
		filter, err := ReadString(body)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stringOrIOErr(TypeSubscribe, err)
		}

		options, err := ReadUint8(body)
		if err != nil {
			return nil, ioErr(TypeSubscribe, err)
		}
		// Bits 7-2 of the options byte are reserved and must be 0.
		if options&0xFC != 0 {
			return nil, payloadErr(TypeSubscribe,
				fmt.Errorf("%w: reserved subscription option bits 0x%X", ErrMalformedPacket, options))
		}
		qos := QoS(options & 0x03)
		if !qos.Valid() {
			return nil, payloadErr(TypeSubscribe,
				fmt.Errorf("%w: requested QoS %d", ErrInvalidQoS, qos))
		}

		subs = append(subs, Subscription{TopicFilter: filter, QoS: qos})
	}
	if body.n > 0 {
		return nil, ioErr(TypeSubscribe, io.ErrUnexpectedEOF)
	}
	if len(subs) == 0 {
		return nil, payloadErr(TypeSubscribe,
			fmt.Errorf("%w: empty subscription list", ErrMalformedPacket))
	}

	return &Subscribe{header: fh, PacketID: id, payload: subs}, nil
}

// SubscribeReturnCode is a per-filter result in a SUBACK payload.
// MQTT 3.1.1 Section 3.9.3
type SubscribeReturnCode byte

const (
	SubscribeGrantedQoS0 SubscribeReturnCode = 0x00 // Success - Maximum QoS 0
	SubscribeGrantedQoS1 SubscribeReturnCode = 0x01 // Success - Maximum QoS 1
	SubscribeGrantedQoS2 SubscribeReturnCode = 0x02 // Success - Maximum QoS 2
	SubscribeFailure     SubscribeReturnCode = 0x80 // Failure
)

// Valid returns true if the return code is protocol-defined.
func (c SubscribeReturnCode) Valid() bool {
	return c <= SubscribeGrantedQoS2 || c == SubscribeFailure
}

// SubackPayload is the SUBACK packet body: one return code per filter
// of the corresponding SUBSCRIBE.
type SubackPayload []SubscribeReturnCode

// EncodedLength returns the payload's size in bytes on the wire.
func (p SubackPayload) EncodedLength() int { return len(p) }

// Encode writes the payload to w.
func (p SubackPayload) Encode(w io.Writer) error {
	for _, code := range p {
		if err := WriteUint8(w, byte(code)); err != nil {
			return err
		}
	}
	return nil
}

// Suback represents an MQTT SUBACK packet.
// MQTT 3.1.1 Section 3.9
type Suback struct {
	header   FixedHeader
	PacketID uint16
	payload  SubackPayload
}

// NewSuback creates a SUBACK packet.
func NewSuback(id uint16, codes ...SubscribeReturnCode) *Suback {
	s := &Suback{
		PacketID: id,
		payload:  SubackPayload(codes),
	}
	s.header = NewFixedHeader(TypeSuback, uint32(2+len(codes)))
	return s
}

// ReturnCodes returns the per-filter results.
func (s *Suback) ReturnCodes() []SubscribeReturnCode { return s.payload }

// FixedHeader returns the packet's fixed header.
func (s *Suback) FixedHeader() FixedHeader { return s.header }

// Payload returns the return code list.
func (s *Suback) Payload() Payload { return s.payload }

// EncodeVariableHeaders writes the packet identifier.
func (s *Suback) EncodeVariableHeaders(w io.Writer) error {
	if err := WriteUint16(w, s.PacketID); err != nil {
		return ioErr(TypeSuback, err)
	}
	return nil
}

// VariableHeadersLength returns 2.
func (s *Suback) VariableHeadersLength() int { return 2 }

// DecodeSuback decodes a SUBACK body.
func DecodeSuback(r io.Reader, fh FixedHeader) (*Suback, error) {
	if err := checkFlags(fh, 0); err != nil {
		return nil, err
	}

	id, err := ReadUint16(r)
	if err != nil {
		return nil, ioErr(TypeSuback, err)
	}

	if fh.RemainingLength < 2 {
		return nil, malformedErr(TypeSuback,
			fmt.Errorf("%w: remaining length shorter than variable headers", ErrMalformedPacket))
	}
	body := &boundedReader{r: r, n: int64(fh.RemainingLength - 2)}

	var codes SubackPayload
	for {
		b, err := ReadUint8(body)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ioErr(TypeSuback, err)
		}
		code := SubscribeReturnCode(b)
		if !code.Valid() {
			return nil, payloadErr(TypeSuback,
				fmt.Errorf("%w: 0x%X", ErrInvalidReturnCode, b))
		}
		codes = append(codes, code)
	}
	if body.n > 0 {
		return nil, ioErr(TypeSuback, io.ErrUnexpectedEOF)
	}
	if len(codes) == 0 {
		return nil, payloadErr(TypeSuback,
			fmt.Errorf("%w: empty return code list", ErrMalformedPacket))
	}

	return &Suback{header: fh, PacketID: id, payload: codes}, nil
}
