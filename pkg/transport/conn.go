// Package transport frames MQTT control packets over network
// connections: plain TCP, TLS, and WebSocket.
package transport

import (
	"net"
	"time"

	"github.com/bromq-dev/mqttwire/pkg/packet"
)

// Conn frames control packets over a single network connection. Reads
// and writes may proceed concurrently with each other, but at most one
// goroutine may read and one may write at a time.
type Conn struct {
	nc net.Conn
	r  *packet.Reader
	w  *packet.Writer
}

// NewConn wraps a network connection for packet framing.
func NewConn(nc net.Conn) *Conn {
	return &Conn{
		nc: nc,
		r:  packet.NewReader(nc),
		w:  packet.NewWriter(nc),
	}
}

// ReadPacket reads the next control packet from the connection.
func (c *Conn) ReadPacket() (packet.VariablePacket, error) {
	return c.r.ReadPacket()
}

// WritePacket encodes and flushes one control packet.
func (c *Conn) WritePacket(p packet.Packet) error {
	return c.w.WritePacket(p)
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.nc.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the underlying connection.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.nc.SetWriteDeadline(t)
}

// RemoteAddr returns the remote address of the connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}
