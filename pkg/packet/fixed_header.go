package packet

import (
	"fmt"
	"io"
)

// FixedHeader is the mandatory leading portion of every control packet:
// the tag byte (control type and flags) followed by the remaining
// length, the exact byte count of the variable header plus payload that
// follow. MQTT 3.1.1 Section 2.2
type FixedHeader struct {
	PacketType      PacketType
	RemainingLength uint32
}

// NewFixedHeader builds a fixed header for a control type using its
// default flags.
func NewFixedHeader(t ControlType, remainingLength uint32) FixedHeader {
	return FixedHeader{
		PacketType:      NewPacketType(t),
		RemainingLength: remainingLength,
	}
}

// Encode writes the header to w: the tag byte followed by the remaining
// length as a variable byte integer in its minimal form.
func (h FixedHeader) Encode(w io.Writer) error {
	if h.RemainingLength > MaxRemainingLength {
		return &FixedHeaderError{
			Err: fmt.Errorf("%w: %d exceeds %d", ErrInvalidRemainingLength, h.RemainingLength, uint32(MaxRemainingLength)),
		}
	}
	if err := WriteUint8(w, h.PacketType.Byte()); err != nil {
		return &FixedHeaderError{Err: err}
	}
	if err := WriteVarInt(w, h.RemainingLength); err != nil {
		return &FixedHeaderError{Err: err}
	}
	return nil
}

// EncodedLength returns the encoded size of the header in bytes.
func (h FixedHeader) EncodedLength() int {
	return 1 + VarIntLength(h.RemainingLength)
}

// DecodeFixedHeader reads one fixed header from r, consuming exactly the
// bytes that belong to it.
//
// io.EOF on the very first byte is returned untouched so stream readers
// can detect a clean end of input. When the control type nibble has no
// mapping the remaining length is still parsed and the header returned
// alongside the error, letting the dispatcher report the full header.
func DecodeFixedHeader(r io.Reader) (FixedHeader, error) {
	tag, err := ReadUint8(r)
	if err != nil {
		if err == io.EOF {
			return FixedHeader{}, io.EOF
		}
		return FixedHeader{}, &FixedHeaderError{Err: err}
	}

	remaining, err := ReadVarInt(r)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return FixedHeader{}, &FixedHeaderError{Err: err}
	}

	fh := FixedHeader{
		PacketType:      PacketTypeFromByte(tag),
		RemainingLength: remaining,
	}
	if !fh.PacketType.ControlType.Valid() {
		return fh, &FixedHeaderError{
			Err: fmt.Errorf("%w: 0x%02X", ErrUnrecognizedControlType, tag),
		}
	}
	return fh, nil
}
