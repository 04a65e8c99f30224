package packet_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bromq-dev/mqttwire/pkg/packet"
)

func TestVarIntBoundaries(t *testing.T) {
	cases := []struct {
		value uint32
		size  int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{2097151, 3},
		{2097152, 4},
		{268435455, 4},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		require.NoError(t, packet.WriteVarInt(&buf, tc.value))
		assert.Equal(t, tc.size, buf.Len(), "encoded size of %d", tc.value)
		assert.Equal(t, tc.size, packet.VarIntLength(tc.value))

		got, err := packet.ReadVarInt(&buf)
		require.NoError(t, err)
		assert.Equal(t, tc.value, got)
	}
}

func TestVarIntRejectsOversizedValue(t *testing.T) {
	var buf bytes.Buffer
	err := packet.WriteVarInt(&buf, packet.MaxRemainingLength+1)
	assert.ErrorIs(t, err, packet.ErrInvalidRemainingLength)
}

func TestVarIntRejectsContinuationOverrun(t *testing.T) {
	_, err := packet.ReadVarInt(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}))
	assert.ErrorIs(t, err, packet.ErrInvalidRemainingLength)
}

func TestVarIntRejectsNonMinimalEncoding(t *testing.T) {
	// All of these decode to in-range values but spend more bytes than
	// the minimal form.
	cases := [][]byte{
		{0x80, 0x00},
		{0xFF, 0x00},
		{0x80, 0x80, 0x00},
		{0x80, 0x80, 0x80, 0x00},
	}

	for _, raw := range cases {
		_, err := packet.ReadVarInt(bytes.NewReader(raw))
		assert.ErrorIs(t, err, packet.ErrInvalidRemainingLength, "input % X", raw)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a/b/c", "héllo wörld", "日本語/トピック"} {
		var buf bytes.Buffer
		require.NoError(t, packet.WriteString(&buf, s))
		assert.Equal(t, packet.StringLength(len(s)), buf.Len())

		got, err := packet.ReadString(&buf)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestWriteStringRejectsTooLong(t *testing.T) {
	var buf bytes.Buffer
	err := packet.WriteString(&buf, strings.Repeat("a", 65536))
	assert.ErrorIs(t, err, packet.ErrStringTooLong)
}

func TestStringRejectsNullCharacter(t *testing.T) {
	var buf bytes.Buffer
	err := packet.WriteString(&buf, "a\x00b")
	assert.ErrorIs(t, err, packet.ErrInvalidUTF8NullChar)

	_, err = packet.ReadString(bytes.NewReader([]byte{0x00, 0x03, 'a', 0x00, 'b'}))
	assert.ErrorIs(t, err, packet.ErrInvalidUTF8NullChar)
}

func TestReadStringRejectsInvalidUTF8(t *testing.T) {
	_, err := packet.ReadString(bytes.NewReader([]byte{0x00, 0x02, 0xC3, 0x28}))
	assert.ErrorIs(t, err, packet.ErrInvalidUTF8)
}

func TestReadBytesTruncatedData(t *testing.T) {
	// Length prefix promises five bytes, only two follow.
	_, err := packet.ReadBytes(bytes.NewReader([]byte{0x00, 0x05, 0x01, 0x02}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadBytesCleanEOFOnLengthPrefix(t *testing.T) {
	// A clean end of input before the length prefix stays io.EOF so list
	// decoders can stop at element boundaries.
	_, err := packet.ReadBytes(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestValidateUTF8String(t *testing.T) {
	assert.NoError(t, packet.ValidateUTF8String([]byte("sensor/1/温度")))
	assert.ErrorIs(t, packet.ValidateUTF8String([]byte{0xC3, 0x28}), packet.ErrInvalidUTF8)
	assert.ErrorIs(t, packet.ValidateUTF8String([]byte{'x', 0x00}), packet.ErrInvalidUTF8NullChar)
}
