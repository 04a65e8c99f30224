package packet

import "io"

// boundedReader restricts reads to exactly n bytes of the underlying
// source. Once the budget is spent every further read fails, so a
// packet decoder can never consume bytes belonging to the next packet;
// a body shorter than declared surfaces as a short read inside the
// decoder.
type boundedReader struct {
	r io.Reader
	n int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.n <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > b.n {
		p = p[:b.n]
	}
	n, err := b.r.Read(p)
	b.n -= int64(n)
	return n, err
}
