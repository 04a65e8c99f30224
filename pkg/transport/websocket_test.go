package transport_test

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bromq-dev/mqttwire/pkg/packet"
	"github.com/bromq-dev/mqttwire/pkg/transport"
)

func TestWebSocketListenerDeliversPackets(t *testing.T) {
	l := transport.NewWebSocket("ws-test", "127.0.0.1:0", nil)
	handler := &connCollector{conns: make(chan *transport.Conn, 1)}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- l.Serve(handler)
	}()

	var addr net.Addr
	require.Eventually(t, func() bool {
		addr = l.Addr()
		return addr != nil && !strings.HasSuffix(addr.String(), ":0")
	}, time.Second, 10*time.Millisecond)

	dialer := websocket.Dialer{
		Subprotocols:     []string{"mqtt"},
		HandshakeTimeout: time.Second,
	}
	ws, _, err := dialer.Dial("ws://"+addr.String()+"/mqtt", nil)
	require.NoError(t, err)
	defer ws.Close()

	var buf bytes.Buffer
	require.NoError(t, packet.Encode(&buf, packet.NewPingreq()))
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, buf.Bytes()))

	select {
	case conn := <-handler.conns:
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		p, err := conn.ReadPacket()
		require.NoError(t, err)
		assert.IsType(t, &packet.Pingreq{}, p)

		require.NoError(t, conn.WritePacket(packet.NewPingresp()))
	case <-time.After(time.Second):
		t.Fatal("no connection delivered")
	}

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	reply, err := packet.DecodeVariablePacket(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.IsType(t, &packet.Pingresp{}, reply)

	require.NoError(t, l.Close())
	assert.NoError(t, <-serveErr)
}
