// Package capture records control packet traffic as a stream of
// msgpack-encoded records, one per observed packet. Capture files are
// append-only and can be replayed through Reader for offline
// inspection.
package capture

import (
	"bytes"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/bromq-dev/mqttwire/pkg/packet"
)

// Record is one captured packet.
type Record struct {
	Timestamp time.Time `msgpack:"ts"`
	Peer      string    `msgpack:"peer"`
	Type      string    `msgpack:"type"`
	Size      int       `msgpack:"size"`
	Data      []byte    `msgpack:"data"`
}

// NewRecord builds a record for p as observed from peer, re-encoding
// the packet to preserve its exact wire form.
func NewRecord(peer string, p packet.Packet) (Record, error) {
	var buf bytes.Buffer
	if err := packet.Encode(&buf, p); err != nil {
		return Record{}, err
	}
	return Record{
		Timestamp: time.Now().UTC(),
		Peer:      peer,
		Type:      p.FixedHeader().PacketType.ControlType.String(),
		Size:      buf.Len(),
		Data:      buf.Bytes(),
	}, nil
}

// Writer appends records to a capture stream. It is safe for use from
// multiple goroutines.
type Writer struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
}

// NewWriter creates a capture writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: msgpack.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(&rec)
}

// Reader iterates the records of a capture stream.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader creates a capture reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
