package packet

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Primitive codec for the integer and length-prefixed data types the
// control packets are built from. All functions operate on streams; a
// decode consumes exactly the bytes that belong to the value. IO errors
// are returned as-is, encoding violations as the string sentinels.

// WriteUint8 writes a single byte to w.
func WriteUint8(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint8 reads a single byte from r.
func ReadUint8(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteUint16 writes a 16-bit unsigned integer in big-endian order.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint16 reads a 16-bit unsigned integer in big-endian order.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteVarInt writes a variable byte integer: base-128, 7 data bits per
// byte low-to-high, high bit set while more bytes follow.
// MQTT 3.1.1 Section 2.2.3
func WriteVarInt(w io.Writer, value uint32) error {
	if value > MaxRemainingLength {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidRemainingLength, value, MaxRemainingLength)
	}

	var buf [4]byte
	i := 0
	for {
		encodedByte := byte(value & 0x7F)
		value >>= 7
		if value > 0 {
			encodedByte |= 0x80
		}
		buf[i] = encodedByte
		i++
		if value == 0 {
			break
		}
	}
	_, err := w.Write(buf[:i])
	return err
}

// ReadVarInt reads a variable byte integer from r. At most 4 bytes are
// consumed. Over-long (non-minimal) encodings are rejected even when
// the value itself is in range.
func ReadVarInt(r io.Reader) (uint32, error) {
	var value uint32
	var multiplier uint32 = 1

	for i := 0; i < 4; i++ {
		encodedByte, err := ReadUint8(r)
		if err != nil {
			return 0, err
		}
		value += uint32(encodedByte&0x7F) * multiplier

		if encodedByte&0x80 == 0 {
			// A trailing zero byte means the same value fits in fewer bytes.
			if encodedByte == 0 && i > 0 {
				return 0, fmt.Errorf("%w: non-minimal encoding", ErrInvalidRemainingLength)
			}
			return value, nil
		}
		multiplier *= 128
	}

	return 0, fmt.Errorf("%w: continuation past 4 bytes", ErrInvalidRemainingLength)
}

// VarIntLength returns the number of bytes a value occupies as a
// variable byte integer.
func VarIntLength(value uint32) int {
	switch {
	case value < 128:
		return 1
	case value < 16384:
		return 2
	case value < 2097152:
		return 3
	default:
		return 4
	}
}

// WriteString writes a UTF-8 string with a 2-byte length prefix.
// MQTT 3.1.1 Section 1.5.3
func WriteString(w io.Writer, s string) error {
	if len(s) > 65535 {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	if err := ValidateUTF8String([]byte(s)); err != nil {
		return err
	}
	if err := WriteUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a length-prefixed UTF-8 string from r and validates
// its encoding.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	if err := ValidateUTF8String(data); err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBytes writes binary data with a 2-byte length prefix.
func WriteBytes(w io.Writer, data []byte) error {
	if len(data) > 65535 {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(data))
	}
	if err := WriteUint16(w, uint16(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// ReadBytes reads length-prefixed binary data from r.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

// StringLength returns the encoded size of a length-prefixed string or
// byte slice body of the given length.
func StringLength(n int) int {
	return 2 + n
}

// ValidateUTF8String validates that data is well-formed UTF-8 without
// null characters. MQTT 3.1.1 Section 1.5.3
func ValidateUTF8String(data []byte) error {
	if !utf8.Valid(data) {
		return ErrInvalidUTF8
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == 0 {
			return ErrInvalidUTF8NullChar
		}
		i += size
	}
	return nil
}
