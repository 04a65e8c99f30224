package packet

import "io"

// Payload is the capability a kind-specific payload value provides to
// the shared encode path.
type Payload interface {
	// EncodedLength returns the payload's size in bytes on the wire.
	EncodedLength() int

	// Encode writes the payload to w.
	Encode(w io.Writer) error
}

// EmptyPayload is the unit payload of packets that carry no body.
type EmptyPayload struct{}

// EncodedLength returns 0.
func (EmptyPayload) EncodedLength() int { return 0 }

// Encode writes nothing and always succeeds.
func (EmptyPayload) Encode(io.Writer) error { return nil }

// Packet is the contract every control packet kind implements. Together
// with the kind's Decode function these operations fully determine the
// shared encode and decode behavior below; kinds never reimplement
// framing.
type Packet interface {
	// FixedHeader returns the packet's fixed header. On a constructed
	// packet the remaining length already equals the encoded size of the
	// variable headers plus payload.
	FixedHeader() FixedHeader

	// Payload returns the kind-specific payload value.
	Payload() Payload

	// EncodeVariableHeaders writes the variable header region to w.
	// Failures are returned as kind-tagged packet errors.
	EncodeVariableHeaders(w io.Writer) error

	// VariableHeadersLength returns the encoded size of the variable
	// header region. It equals the byte count EncodeVariableHeaders
	// writes; constructors establish that equality.
	VariableHeadersLength() int
}

// Encode writes p to w: fixed header, then variable headers, then
// payload. Kind-level errors pass through unchanged; payload failures
// are lifted to the kind's payload stage.
func Encode(w io.Writer, p Packet) error {
	fh := p.FixedHeader()
	t := fh.PacketType.ControlType

	if err := fh.Encode(w); err != nil {
		return fixedHeaderErr(t, err)
	}
	if err := p.EncodeVariableHeaders(w); err != nil {
		return err
	}
	if err := p.Payload().Encode(w); err != nil {
		return payloadErr(t, err)
	}
	return nil
}

// EncodedLength returns the total encoded size of p: fixed header plus
// variable headers plus payload.
func EncodedLength(p Packet) int {
	return p.FixedHeader().EncodedLength() +
		p.VariableHeadersLength() +
		p.Payload().EncodedLength()
}

// DecodeFunc decodes the body of one packet kind from a source already
// positioned after the fixed header. The source is expected to be
// bounded to the header's remaining length.
type DecodeFunc[T Packet] func(r io.Reader, fh FixedHeader) (T, error)

// DecodePacket decodes one packet of a known kind. When fh is nil a
// fixed header is read from r first and handed to decode. t names the
// kind being decoded so a header failure is reported against it rather
// than against whatever fragment came off the wire.
func DecodePacket[T Packet](r io.Reader, t ControlType, fh *FixedHeader, decode DecodeFunc[T]) (T, error) {
	var header FixedHeader
	if fh != nil {
		header = *fh
	} else {
		h, err := DecodeFixedHeader(r)
		if err != nil {
			var zero T
			return zero, fixedHeaderErr(t, err)
		}
		header = h
	}
	return decode(r, header)
}
