package packet

import (
	"fmt"
	"io"
)

// PUBLISH fixed header flag bits. MQTT 3.1.1 Section 3.3.1
const (
	publishFlagRetain = 1 << 0
	publishFlagDup    = 1 << 3
)

// BytesPayload is an opaque application message body. Its extent on the
// wire is whatever the remaining length leaves after the variable
// headers.
type BytesPayload []byte

// EncodedLength returns the payload's size in bytes.
func (b BytesPayload) EncodedLength() int { return len(b) }

// Encode writes the payload to w.
func (b BytesPayload) Encode(w io.Writer) error {
	_, err := w.Write(b)
	return err
}

// Publish represents an MQTT PUBLISH packet. Unlike every other kind,
// its fixed header flag nibble is semantically meaningful: it carries
// the DUP, QoS, and RETAIN bits.
// MQTT 3.1.1 Section 3.3
type Publish struct {
	header    FixedHeader
	TopicName string
	PacketID  uint16 // nonzero only when QoS > 0
	payload   BytesPayload
}

// NewPublish creates a PUBLISH packet for the given topic, QoS level,
// and message body. For QoS above 0 assign a packet identifier with
// SetPacketID before encoding.
func NewPublish(topic string, qos QoS, message []byte) *Publish {
	p := &Publish{TopicName: topic}
	if len(message) > 0 {
		p.payload = BytesPayload(message)
	}
	p.header = FixedHeader{
		PacketType: NewPacketTypeWithFlags(TypePublish, byte(qos)<<1),
	}
	p.recomputeRemainingLength()
	return p
}

func (p *Publish) recomputeRemainingLength() {
	p.header.RemainingLength = uint32(p.VariableHeadersLength() + p.payload.EncodedLength())
}

// QoS returns the QoS level carried in the flag nibble.
func (p *Publish) QoS() QoS {
	return QoS((p.header.PacketType.Flags >> 1) & 0x03)
}

// Dup returns the DUP flag.
func (p *Publish) Dup() bool {
	return p.header.PacketType.Flags&publishFlagDup != 0
}

// Retain returns the RETAIN flag.
func (p *Publish) Retain() bool {
	return p.header.PacketType.Flags&publishFlagRetain != 0
}

// SetDup sets the DUP flag.
func (p *Publish) SetDup(dup bool) {
	if dup {
		p.header.PacketType.Flags |= publishFlagDup
	} else {
		p.header.PacketType.Flags &^= publishFlagDup
	}
}

// SetRetain sets the RETAIN flag.
func (p *Publish) SetRetain(retain bool) {
	if retain {
		p.header.PacketType.Flags |= publishFlagRetain
	} else {
		p.header.PacketType.Flags &^= publishFlagRetain
	}
}

// SetPacketID assigns the packet identifier used when QoS > 0.
func (p *Publish) SetPacketID(id uint16) {
	p.PacketID = id
}

// Message returns the application message body.
func (p *Publish) Message() []byte { return p.payload }

// FixedHeader returns the packet's fixed header.
func (p *Publish) FixedHeader() FixedHeader { return p.header }

// Payload returns the message body.
func (p *Publish) Payload() Payload { return p.payload }

// EncodeVariableHeaders writes the topic name and, for QoS above 0, the
// packet identifier.
func (p *Publish) EncodeVariableHeaders(w io.Writer) error {
	if err := WriteString(w, p.TopicName); err != nil {
		return stringOrIOErr(TypePublish, err)
	}
	if p.QoS() > QoS0 {
		if err := WriteUint16(w, p.PacketID); err != nil {
			return ioErr(TypePublish, err)
		}
	}
	return nil
}

// VariableHeadersLength returns the encoded variable header size.
func (p *Publish) VariableHeadersLength() int {
	n := StringLength(len(p.TopicName))
	if p.QoS() > QoS0 {
		n += 2
	}
	return n
}

// DecodePublish decodes a PUBLISH body. The flag nibble of the supplied
// header is validated and interpreted here; everything up to the
// declared remaining length after the variable headers becomes the
// message body.
func DecodePublish(r io.Reader, fh FixedHeader) (*Publish, error) {
	p := &Publish{header: fh}

	qos := p.QoS()
	if !qos.Valid() {
		return nil, malformedErr(TypePublish,
			fmt.Errorf("%w: QoS %d in flags", ErrInvalidQoS, qos))
	}
	if qos == QoS0 && p.Dup() {
		return nil, malformedErr(TypePublish,
			fmt.Errorf("%w: DUP set with QoS 0", ErrMalformedPacket))
	}

	topic, err := ReadString(r)
	if err != nil {
		return nil, stringOrIOErr(TypePublish, err)
	}
	p.TopicName = topic

	consumed := StringLength(len(topic))
	if qos > QoS0 {
		id, err := ReadUint16(r)
		if err != nil {
			return nil, ioErr(TypePublish, err)
		}
		if id == 0 {
			return nil, variableHeaderErr(TypePublish, ErrInvalidPacketID)
		}
		p.PacketID = id
		consumed += 2
	}

	bodyLen := int(fh.RemainingLength) - consumed
	if bodyLen < 0 {
		return nil, malformedErr(TypePublish,
			fmt.Errorf("%w: remaining length shorter than variable headers", ErrMalformedPacket))
	}
	if bodyLen > 0 {
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(r, body); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, ioErr(TypePublish, err)
		}
		p.payload = body
	}

	return p, nil
}
