package packet

import (
	"bufio"
	"io"
)

// Reader decodes control packets from a byte stream. It buffers the
// underlying reader; each ReadPacket consumes exactly one packet's
// bytes as declared by its fixed header.
type Reader struct {
	br *bufio.Reader
}

// NewReader creates a packet reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadPacket reads the next packet from the stream. A clean end of
// input is reported as io.EOF.
func (r *Reader) ReadPacket() (VariablePacket, error) {
	return DecodeVariablePacket(r.br, nil)
}

// Writer encodes control packets to a byte stream, flushing after each
// packet so a peer never waits on a partially buffered frame.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter creates a packet writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WritePacket encodes one packet and flushes it.
func (w *Writer) WritePacket(p Packet) error {
	if err := Encode(w.bw, p); err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return ioErr(p.FixedHeader().PacketType.ControlType, err)
	}
	return nil
}
