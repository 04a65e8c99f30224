// mqttdump listens for MQTT connections over TCP and WebSocket, decodes
// every inbound control packet, and logs a structured line per packet.
// It answers CONNECT with CONNACK and PINGREQ with PINGRESP so clients
// keep their session alive while being observed. With -capture, every
// decoded packet is appended to a msgpack capture file that can be
// replayed offline.
package main

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bromq-dev/mqttwire/pkg/capture"
	"github.com/bromq-dev/mqttwire/pkg/packet"
	"github.com/bromq-dev/mqttwire/pkg/transport"
)

var (
	mqttAddr    = flag.String("addr", ":1883", "MQTT listen address")
	wsAddr      = flag.String("ws-addr", "", "WebSocket listen address (disabled if empty)")
	wsPath      = flag.String("ws-path", "/mqtt", "WebSocket listen path")
	captureFile = flag.String("capture", "", "capture file to append decoded packets to (msgpack)")
	verbose     = flag.Bool("v", false, "enable debug logging")
)

type dumper struct {
	log *slog.Logger
	cap *capture.Writer // nil when capturing is disabled
}

// HandleConnection implements transport.ConnectionHandler.
func (d *dumper) HandleConnection(conn *transport.Conn) {
	go d.serve(conn)
}

func (d *dumper) serve(conn *transport.Conn) {
	defer conn.Close()

	peer := conn.RemoteAddr().String()
	log := d.log.With("peer", peer)
	log.Info("connection opened")

	for {
		p, err := conn.ReadPacket()
		if err != nil {
			d.logDecodeError(log, err)
			return
		}

		fh := p.FixedHeader()
		log.Info("packet",
			"type", fh.PacketType.ControlType.String(),
			"flags", fh.PacketType.Flags,
			"size", packet.EncodedLength(p))

		if d.cap != nil {
			rec, err := capture.NewRecord(peer, p)
			if err == nil {
				err = d.cap.Write(rec)
			}
			if err != nil {
				log.Warn("capture failed", "error", err)
			}
		}

		switch pk := p.(type) {
		case *packet.Connect:
			log.Info("client identified", "client_id", pk.ClientID(), "keep_alive", pk.KeepAlive)
			if err := conn.WritePacket(packet.NewConnack(false, packet.ConnectionAccepted)); err != nil {
				log.Warn("write failed", "error", err)
				return
			}
		case *packet.Pingreq:
			if err := conn.WritePacket(packet.NewPingresp()); err != nil {
				log.Warn("write failed", "error", err)
				return
			}
		case *packet.Disconnect:
			log.Info("connection closed by client")
			return
		}
	}
}

func (d *dumper) logDecodeError(log *slog.Logger, err error) {
	if errors.Is(err, io.EOF) {
		log.Info("connection closed")
		return
	}

	var unrec *packet.UnrecognizedHeaderError
	if errors.As(err, &unrec) {
		log.Warn("unrecognized packet",
			"type", byte(unrec.Header.PacketType.ControlType),
			"flags", unrec.Header.PacketType.Flags,
			"remaining_length", unrec.Header.RemainingLength)
		return
	}

	var pe *packet.PacketError
	if errors.As(err, &pe) {
		log.Warn("decode failed", "type", pe.Type.String(), "stage", pe.Stage.String(), "error", pe.Err)
		return
	}

	log.Warn("read failed", "error", err)
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	d := &dumper{log: log}

	if *captureFile != "" {
		f, err := os.OpenFile(*captureFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Error("open capture file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		d.cap = capture.NewWriter(f)
		log.Info("capturing packets", "file", *captureFile)
	}

	var listeners []transport.Listener
	listeners = append(listeners, transport.NewTCP("tcp", *mqttAddr, nil))
	if *wsAddr != "" {
		listeners = append(listeners, transport.NewWebSocket("ws", *wsAddr, &transport.WebSocketConfig{Path: *wsPath}))
	}

	for _, l := range listeners {
		go func(l transport.Listener) {
			log.Info("listening", "listener", l.ID())
			if err := l.Serve(d); err != nil {
				log.Error("listener failed", "listener", l.ID(), "error", err)
			}
		}(l)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	for _, l := range listeners {
		if err := l.Close(); err != nil {
			log.Warn("listener close", "listener", l.ID(), "error", err)
		}
	}
}
