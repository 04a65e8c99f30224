package packet

import (
	"errors"
	"fmt"
	"io"
)

// VariablePacket is the closed set of control packets, used when the
// kind is not known until the tag byte arrives off the wire. Every
// concrete kind converts into it losslessly by plain assignment; the
// unexported marker keeps the set closed to this package.
type VariablePacket interface {
	Packet
	variablePacket()
}

// Marker implementations, one per kind, kept next to the dispatch table
// so the full kind list lives in a single file.
func (*Connect) variablePacket()     {}
func (*Connack) variablePacket()     {}
func (*Publish) variablePacket()     {}
func (*Puback) variablePacket()      {}
func (*Pubrec) variablePacket()      {}
func (*Pubrel) variablePacket()      {}
func (*Pubcomp) variablePacket()     {}
func (*Subscribe) variablePacket()   {}
func (*Suback) variablePacket()      {}
func (*Unsubscribe) variablePacket() {}
func (*Unsuback) variablePacket()    {}
func (*Pingreq) variablePacket()     {}
func (*Pingresp) variablePacket()    {}
func (*Disconnect) variablePacket()  {}

// decodeAs adapts a kind decoder to the aggregate result type.
func decodeAs[T VariablePacket](decode DecodeFunc[T]) DecodeFunc[VariablePacket] {
	return func(r io.Reader, fh FixedHeader) (VariablePacket, error) {
		p, err := decode(r, fh)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// packetDecoders maps each control type to its kind decoder. This table
// is the single source of truth for control type dispatch; adding a
// kind means one marker method above and one row here.
var packetDecoders = map[ControlType]DecodeFunc[VariablePacket]{
	TypeConnect:     decodeAs(DecodeConnect),
	TypeConnack:     decodeAs(DecodeConnack),
	TypePublish:     decodeAs(DecodePublish),
	TypePuback:      decodeAs(DecodePuback),
	TypePubrec:      decodeAs(DecodePubrec),
	TypePubrel:      decodeAs(DecodePubrel),
	TypePubcomp:     decodeAs(DecodePubcomp),
	TypeSubscribe:   decodeAs(DecodeSubscribe),
	TypeSuback:      decodeAs(DecodeSuback),
	TypeUnsubscribe: decodeAs(DecodeUnsubscribe),
	TypeUnsuback:    decodeAs(DecodeUnsuback),
	TypePingreq:     decodeAs(DecodePingreq),
	TypePingresp:    decodeAs(DecodePingresp),
	TypeDisconnect:  decodeAs(DecodeDisconnect),
}

// DecodeVariablePacket reads one packet of unknown kind from r. When fh
// is nil a fixed header is decoded first. The body is handed to the
// matching kind decoder through a source bounded to exactly the
// declared remaining length, so a malformed packet can never consume
// bytes belonging to the next one. A kind decoder that succeeds without
// spending the whole declared region fails the packet as malformed; the
// slack is discarded so the stream stays framed on the header's
// declaration.
//
// A clean end of input before the first header byte is reported as
// io.EOF. A header whose control type has no matching kind fails with
// UnrecognizedHeaderError carrying the parsed header.
func DecodeVariablePacket(r io.Reader, fh *FixedHeader) (VariablePacket, error) {
	var header FixedHeader
	if fh != nil {
		header = *fh
	} else {
		h, err := DecodeFixedHeader(r)
		if err != nil {
			if errors.Is(err, ErrUnrecognizedControlType) {
				return nil, &UnrecognizedHeaderError{Header: h}
			}
			return nil, err
		}
		header = h
	}

	decode, ok := packetDecoders[header.PacketType.ControlType]
	if !ok {
		return nil, &UnrecognizedHeaderError{Header: header}
	}

	body := &boundedReader{r: r, n: int64(header.RemainingLength)}
	p, err := decode(body, header)
	if err != nil {
		return nil, err
	}
	if body.n > 0 {
		slack := body.n
		if _, err := io.Copy(io.Discard, body); err != nil {
			return nil, ioErr(header.PacketType.ControlType, err)
		}
		return nil, malformedErr(header.PacketType.ControlType,
			fmt.Errorf("%w: %d unconsumed bytes inside declared remaining length", ErrMalformedPacket, slack))
	}
	return p, nil
}
