package transport

import (
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"
)

// ConnectionHandler receives framed connections from listeners.
type ConnectionHandler interface {
	HandleConnection(conn *Conn)
}

// Listener is the interface all transport listeners implement.
type Listener interface {
	// ID returns the unique identifier for this listener.
	ID() string

	// Addr returns the listener's address.
	Addr() net.Addr

	// Serve starts accepting connections and passes them to the handler.
	// It blocks until Close is called.
	Serve(handler ConnectionHandler) error

	// Close stops the listener.
	Close() error
}

// TCPConfig holds configuration for TCP listeners.
type TCPConfig struct {
	// TLSConfig enables TLS if set.
	TLSConfig *tls.Config
}

// TCP accepts plain TCP or TLS connections and frames them for packet
// traffic.
type TCP struct {
	id       string
	addr     string
	config   *TCPConfig
	listener net.Listener
	wg       sync.WaitGroup
	closed   chan struct{}
	mu       sync.Mutex
}

// NewTCP creates a TCP listener. Set config.TLSConfig to serve TLS.
func NewTCP(id, addr string, config *TCPConfig) *TCP {
	if config == nil {
		config = &TCPConfig{}
	}
	return &TCP{
		id:     id,
		addr:   addr,
		config: config,
		closed: make(chan struct{}),
	}
}

// ID returns the listener ID.
func (t *TCP) ID() string {
	return t.id
}

// Addr returns the listener's address, or nil before Serve is called.
func (t *TCP) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// Serve starts the listener and accepts connections.
func (t *TCP) Serve(handler ConnectionHandler) error {
	var l net.Listener
	var err error

	if t.config.TLSConfig != nil {
		l, err = tls.Listen("tcp", t.addr, t.config.TLSConfig)
	} else {
		l, err = net.Listen("tcp", t.addr)
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()

	t.wg.Add(1)
	defer t.wg.Done()

	return t.acceptLoop(l, handler)
}

// acceptLoop accepts until the listener fails permanently or the
// listener is closed. Transient accept errors (fd exhaustion and the
// like) are retried with exponential backoff so a persistent condition
// cannot spin the loop.
func (t *TCP) acceptLoop(l net.Listener, handler ConnectionHandler) error {
	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-t.closed:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			select {
			case <-t.closed:
				return nil
			case <-time.After(delay):
			}
			continue
		}
		delay = 0
		handler.HandleConnection(NewConn(conn))
	}
}

// Close stops the listener.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.closed:
		return errors.New("listener already closed")
	default:
		close(t.closed)
	}

	if t.listener != nil {
		t.listener.Close()
	}
	t.wg.Wait()
	return nil
}
