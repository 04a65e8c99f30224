package packet_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bromq-dev/mqttwire/pkg/packet"
)

// samplePackets builds one or more instances of every packet kind,
// covering the optional field combinations the codecs branch on.
func samplePackets() []packet.VariablePacket {
	minimalConnect := packet.NewConnect("sensor-17")
	minimalConnect.SetKeepAlive(30)

	fullConnect := packet.NewConnect("gateway-2")
	fullConnect.SetWill("devices/gateway-2/status", []byte("offline"), packet.QoS1, true)
	fullConnect.SetUsername("ops")
	fullConnect.SetPassword([]byte("hunter2"))
	fullConnect.SetKeepAlive(60)

	qos0 := packet.NewPublish("metrics/load", packet.QoS0, []byte("0.42"))

	qos1 := packet.NewPublish("alerts/fire", packet.QoS1, []byte("floor 3"))
	qos1.SetPacketID(7)
	qos1.SetRetain(true)

	qos2 := packet.NewPublish("billing/invoice", packet.QoS2, []byte{0x01, 0x02, 0x03})
	qos2.SetPacketID(9)
	qos2.SetDup(true)

	emptyBody := packet.NewPublish("heartbeat", packet.QoS0, nil)

	return []packet.VariablePacket{
		minimalConnect,
		fullConnect,
		packet.NewConnack(false, packet.ConnectionAccepted),
		packet.NewConnack(true, packet.NotAuthorized),
		qos0,
		qos1,
		qos2,
		emptyBody,
		packet.NewPuback(1),
		packet.NewPubrec(2),
		packet.NewPubrel(3),
		packet.NewPubcomp(4),
		packet.NewSubscribe(5,
			packet.Subscription{TopicFilter: "a/+", QoS: packet.QoS1},
			packet.Subscription{TopicFilter: "b/#", QoS: packet.QoS2},
		),
		packet.NewSuback(5,
			packet.SubscribeGrantedQoS1,
			packet.SubscribeGrantedQoS2,
			packet.SubscribeFailure,
		),
		packet.NewUnsubscribe(6, "a/+", "b/#"),
		packet.NewUnsuback(6),
		packet.NewPingreq(),
		packet.NewPingresp(),
		packet.NewDisconnect(),
	}
}

func TestVariablePacketRoundTrip(t *testing.T) {
	for i, p := range samplePackets() {
		t.Run(fmt.Sprintf("%02d_%s", i, p.FixedHeader().PacketType.ControlType), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, packet.Encode(&buf, p))

			decoded, err := packet.DecodeVariablePacket(bytes.NewReader(buf.Bytes()), nil)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)
		})
	}
}

func TestDecodeUnrecognizedHeader(t *testing.T) {
	cases := []struct {
		raw       []byte
		flags     byte
		remaining uint32
	}{
		{[]byte{0x00, 0x00}, 0x00, 0},
		{[]byte{0xF3, 0x01, 0xAA}, 0x03, 1},
	}

	for _, tc := range cases {
		_, err := packet.DecodeVariablePacket(bytes.NewReader(tc.raw), nil)
		require.Error(t, err)

		var unrec *packet.UnrecognizedHeaderError
		require.ErrorAs(t, err, &unrec, "input % X", tc.raw)
		assert.Equal(t, packet.ControlType(tc.raw[0]>>4), unrec.Header.PacketType.ControlType)
		assert.Equal(t, tc.flags, unrec.Header.PacketType.Flags)
		assert.Equal(t, tc.remaining, unrec.Header.RemainingLength)
	}
}

func TestDecodeMalformedPackets(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want error
	}{
		{
			"connack reserved ack bits",
			[]byte{0x20, 0x02, 0x02, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"connack unknown return code",
			[]byte{0x20, 0x02, 0x00, 0x09},
			packet.ErrInvalidReturnCode,
		},
		{
			"connack wrong remaining length",
			[]byte{0x20, 0x03, 0x00, 0x00, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"connect wrong protocol name",
			[]byte{0x10, 0x0C, 0x00, 0x04, 'M', 'Q', 'T', 'X', 0x04, 0x02, 0x00, 0x00, 0x00, 0x00},
			packet.ErrInvalidProtocolName,
		},
		{
			"connect wrong protocol level",
			[]byte{0x10, 0x0C, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x03, 0x02, 0x00, 0x00, 0x00, 0x00},
			packet.ErrInvalidProtocolLevel,
		},
		{
			"connect reserved flag bit",
			[]byte{0x10, 0x0C, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x03, 0x00, 0x00, 0x00, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"connect password without username",
			[]byte{0x10, 0x0C, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x42, 0x00, 0x00, 0x00, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"connect will qos without will flag",
			[]byte{0x10, 0x0C, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x0A, 0x00, 0x00, 0x00, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"publish invalid qos",
			[]byte{0x36, 0x05, 0x00, 0x03, 'a', 'b', 'c'},
			packet.ErrInvalidQoS,
		},
		{
			"publish dup with qos 0",
			[]byte{0x38, 0x05, 0x00, 0x03, 'a', 'b', 'c'},
			packet.ErrMalformedPacket,
		},
		{
			"publish zero packet id",
			[]byte{0x32, 0x07, 0x00, 0x03, 'a', 'b', 'c', 0x00, 0x00},
			packet.ErrInvalidPacketID,
		},
		{
			"puback wrong remaining length",
			[]byte{0x40, 0x03, 0x00, 0x01, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"pubrel missing reserved flags",
			[]byte{0x60, 0x02, 0x00, 0x01},
			packet.ErrInvalidFlags,
		},
		{
			"subscribe missing reserved flags",
			[]byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x01, 'a', 0x01},
			packet.ErrInvalidFlags,
		},
		{
			"subscribe zero packet id",
			[]byte{0x82, 0x06, 0x00, 0x00, 0x00, 0x01, 'a', 0x01},
			packet.ErrInvalidPacketID,
		},
		{
			"subscribe reserved option bits",
			[]byte{0x82, 0x06, 0x00, 0x01, 0x00, 0x01, 'a', 0x04},
			packet.ErrMalformedPacket,
		},
		{
			"subscribe empty filter list",
			[]byte{0x82, 0x02, 0x00, 0x01},
			packet.ErrMalformedPacket,
		},
		{
			"suback unknown return code",
			[]byte{0x90, 0x03, 0x00, 0x01, 0x03},
			packet.ErrInvalidReturnCode,
		},
		{
			"unsubscribe empty filter list",
			[]byte{0xA2, 0x02, 0x00, 0x01},
			packet.ErrMalformedPacket,
		},
		{
			"pingreq nonzero remaining length",
			[]byte{0xC0, 0x01, 0x00},
			packet.ErrMalformedPacket,
		},
		{
			"disconnect nonzero remaining length",
			[]byte{0xE0, 0x01, 0x00},
			packet.ErrMalformedPacket,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := packet.DecodeVariablePacket(bytes.NewReader(tc.raw), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var pktErr *packet.PacketError
			assert.ErrorAs(t, err, &pktErr)
		})
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	// PUBACK promising two identifier bytes but delivering one.
	_, err := packet.DecodeVariablePacket(bytes.NewReader([]byte{0x40, 0x02, 0x00}), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var pktErr *packet.PacketError
	require.ErrorAs(t, err, &pktErr)
	assert.Equal(t, packet.StageIO, pktErr.Stage)
}

func TestDecodeRejectsSlackInDeclaredLength(t *testing.T) {
	// A minimal CONNECT occupies twelve body bytes, but the header
	// declares thirteen. The slack byte must fail the packet instead of
	// lingering in the stream and corrupting the PINGREQ behind it.
	stream := []byte{
		0x10, 0x0D, // CONNECT, remaining length 13
		0x00, 0x04, 'M', 'Q', 'T', 'T', // protocol name
		0x04,       // protocol level
		0x02,       // connect flags: clean session
		0x00, 0x00, // keep alive
		0x00, 0x00, // empty client id
		0xE0,       // slack inside the declared region
		0xC0, 0x00, // PINGREQ
	}

	r := packet.NewReader(bytes.NewReader(stream))

	_, err := r.ReadPacket()
	require.Error(t, err)
	assert.ErrorIs(t, err, packet.ErrMalformedPacket)

	var pktErr *packet.PacketError
	require.ErrorAs(t, err, &pktErr)
	assert.Equal(t, packet.TypeConnect, pktErr.Type)
	assert.Equal(t, packet.StageMalformed, pktErr.Stage)

	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.IsType(t, &packet.Pingreq{}, p)
}

func TestBodyBoundingProtectsNextPacket(t *testing.T) {
	// A SUBSCRIBE whose filter length field points past its declared
	// remaining length, immediately followed by a PINGREQ. The broken
	// packet must fail without consuming the PINGREQ's bytes.
	stream := []byte{
		0x82, 0x06, // SUBSCRIBE, remaining length 6
		0x00, 0x01, // packet id 1
		0x00, 0xFF, // filter length 255, only 2 body bytes left
		0xAA, 0xBB,
		0xC0, 0x00, // PINGREQ
	}

	r := packet.NewReader(bytes.NewReader(stream))

	_, err := r.ReadPacket()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	p, err := r.ReadPacket()
	require.NoError(t, err)
	assert.IsType(t, &packet.Pingreq{}, p)

	_, err = r.ReadPacket()
	assert.ErrorIs(t, err, io.EOF)
}

// topicGen produces topic names and filters that satisfy the UTF-8
// rules of the string codec.
var topicGen = rapid.StringMatching(`[a-zA-Z0-9/_+#-]{1,32}`)

func TestPublishRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qos := packet.QoS(rapid.IntRange(0, 2).Draw(t, "qos"))
		message := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "message")

		p := packet.NewPublish(topicGen.Draw(t, "topic"), qos, message)
		p.SetRetain(rapid.Bool().Draw(t, "retain"))
		if qos > packet.QoS0 {
			p.SetPacketID(uint16(rapid.IntRange(1, 65535).Draw(t, "id")))
			p.SetDup(rapid.Bool().Draw(t, "dup"))
		}

		var buf bytes.Buffer
		require.NoError(t, packet.Encode(&buf, p))
		require.Equal(t, buf.Len(), packet.EncodedLength(p))

		decoded, err := packet.DecodeVariablePacket(bytes.NewReader(buf.Bytes()), nil)
		require.NoError(t, err)
		require.Equal(t, p, decoded)
	})
}

func TestSubscribeRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		subs := make([]packet.Subscription, n)
		for i := range subs {
			subs[i] = packet.Subscription{
				TopicFilter: topicGen.Draw(t, fmt.Sprintf("filter%d", i)),
				QoS:         packet.QoS(rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("qos%d", i))),
			}
		}
		p := packet.NewSubscribe(uint16(rapid.IntRange(1, 65535).Draw(t, "id")), subs...)

		var buf bytes.Buffer
		require.NoError(t, packet.Encode(&buf, p))

		decoded, err := packet.DecodeVariablePacket(bytes.NewReader(buf.Bytes()), nil)
		require.NoError(t, err)
		require.Equal(t, p, decoded)
	})
}

func TestConnectRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := packet.NewConnect(topicGen.Draw(t, "clientID"))
		p.SetKeepAlive(uint16(rapid.IntRange(0, 65535).Draw(t, "keepalive")))

		if rapid.Bool().Draw(t, "will") {
			p.SetWill(
				topicGen.Draw(t, "willTopic"),
				rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "willMessage"),
				packet.QoS(rapid.IntRange(0, 2).Draw(t, "willQoS")),
				rapid.Bool().Draw(t, "willRetain"),
			)
		}
		if rapid.Bool().Draw(t, "username") {
			p.SetUsername(topicGen.Draw(t, "user"))
			if rapid.Bool().Draw(t, "password") {
				p.SetPassword(rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "pass"))
			}
		}

		var buf bytes.Buffer
		require.NoError(t, packet.Encode(&buf, p))

		decoded, err := packet.DecodeVariablePacket(bytes.NewReader(buf.Bytes()), nil)
		require.NoError(t, err)
		require.Equal(t, p, decoded)
	})
}
