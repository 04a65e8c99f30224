package packet

import (
	"errors"
	"fmt"
)

// Sentinel errors for the leaf failure conditions. Higher layers wrap
// these so callers can match with errors.Is regardless of which packet
// kind surfaced them.
var (
	// ErrUnrecognizedControlType indicates a tag byte whose control type
	// nibble has no protocol-defined mapping.
	ErrUnrecognizedControlType = errors.New("unrecognized control type")

	// ErrInvalidRemainingLength indicates a remaining length field that is
	// malformed, non-minimally encoded, or out of range.
	ErrInvalidRemainingLength = errors.New("invalid remaining length")

	// ErrMalformedPacket indicates the packet structure is invalid.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrInvalidFlags indicates fixed header flags that do not match the
	// value reserved for the packet type.
	ErrInvalidFlags = errors.New("invalid packet flags")

	// ErrInvalidQoS indicates an invalid QoS level.
	ErrInvalidQoS = errors.New("invalid QoS level")

	// ErrInvalidPacketID indicates a zero packet identifier where the
	// protocol requires a non-zero one.
	ErrInvalidPacketID = errors.New("invalid packet identifier")

	// ErrInvalidProtocolName indicates an unrecognized protocol name.
	ErrInvalidProtocolName = errors.New("invalid protocol name")

	// ErrInvalidProtocolLevel indicates an unsupported protocol level.
	ErrInvalidProtocolLevel = errors.New("invalid protocol level")

	// ErrInvalidReturnCode indicates an unknown return code value.
	ErrInvalidReturnCode = errors.New("invalid return code")

	// ErrStringTooLong indicates text or binary data exceeding the two
	// byte length prefix.
	ErrStringTooLong = errors.New("string exceeds 65535 bytes")

	// ErrInvalidUTF8 indicates a string that is not well-formed UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 string")

	// ErrInvalidUTF8NullChar indicates a string containing U+0000.
	ErrInvalidUTF8NullChar = errors.New("UTF-8 string contains null character")
)

// Stage identifies the codec layer at which a packet operation failed.
type Stage int

const (
	// StageFixedHeader covers tag byte and remaining length failures.
	StageFixedHeader Stage = iota + 1
	// StageVariableHeader covers the kind-specific variable header region.
	StageVariableHeader
	// StagePayload covers the kind-specific payload region.
	StagePayload
	// StageString covers length-prefixed text encoding failures.
	StageString
	// StageIO covers failures of the underlying byte source or sink,
	// including truncation inside a length-bounded packet body.
	StageIO
	// StageMalformed covers structural violations not tied to one of the
	// sub-codecs, such as reserved bits that must be zero.
	StageMalformed
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageFixedHeader:
		return "fixed header"
	case StageVariableHeader:
		return "variable header"
	case StagePayload:
		return "payload"
	case StageString:
		return "string"
	case StageIO:
		return "io"
	case StageMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FixedHeaderError reports a failure while encoding or decoding a fixed
// header, before any packet kind is involved.
type FixedHeaderError struct {
	Err error
}

// Error implements the error interface.
func (e *FixedHeaderError) Error() string {
	return "fixed header: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *FixedHeaderError) Unwrap() error {
	return e.Err
}

// PacketError reports a failure while encoding or decoding a single
// control packet. Type tags the packet kind being processed and Stage
// the layer that failed; Err preserves the original cause.
type PacketError struct {
	Type  ControlType
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *PacketError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PacketError) Unwrap() error {
	return e.Err
}

// UnrecognizedHeaderError reports a decoded fixed header whose control
// type has no matching packet kind. The parsed header is retained for
// diagnostics; its remaining length has already been consumed from the
// source.
type UnrecognizedHeaderError struct {
	Header FixedHeader
}

// Error implements the error interface.
func (e *UnrecognizedHeaderError) Error() string {
	return fmt.Sprintf("unrecognized fixed header: type 0x%X flags 0x%X remaining length %d",
		byte(e.Header.PacketType.ControlType), e.Header.PacketType.Flags, e.Header.RemainingLength)
}

// The helpers below are the single conversion path from lower-layer
// failures into kind-tagged packet errors. Every fallible sub-step in a
// packet codec maps its error through exactly one of them.

func fixedHeaderErr(t ControlType, err error) *PacketError {
	return &PacketError{Type: t, Stage: StageFixedHeader, Err: err}
}

func variableHeaderErr(t ControlType, err error) *PacketError {
	return &PacketError{Type: t, Stage: StageVariableHeader, Err: err}
}

func payloadErr(t ControlType, err error) *PacketError {
	return &PacketError{Type: t, Stage: StagePayload, Err: err}
}

func ioErr(t ControlType, err error) *PacketError {
	return &PacketError{Type: t, Stage: StageIO, Err: err}
}

func malformedErr(t ControlType, err error) *PacketError {
	return &PacketError{Type: t, Stage: StageMalformed, Err: err}
}

// isStringErr reports whether err is one of the text codec conditions.
func isStringErr(err error) bool {
	return errors.Is(err, ErrStringTooLong) ||
		errors.Is(err, ErrInvalidUTF8) ||
		errors.Is(err, ErrInvalidUTF8NullChar)
}

// stringOrIOErr lifts an error from the text codec: encoding violations
// surface at the string stage, everything else is an io failure.
func stringOrIOErr(t ControlType, err error) *PacketError {
	if isStringErr(err) {
		return &PacketError{Type: t, Stage: StageString, Err: err}
	}
	return &PacketError{Type: t, Stage: StageIO, Err: err}
}

// checkFlags rejects fixed header flags that differ from the value
// reserved for the packet type. MQTT 3.1.1 Section 2.2.2 requires the
// server to close the connection on reserved flag violations.
func checkFlags(fh FixedHeader, want byte) *PacketError {
	if fh.PacketType.Flags != want {
		t := fh.PacketType.ControlType
		return malformedErr(t, fmt.Errorf("%w: got 0x%X, want 0x%X", ErrInvalidFlags, fh.PacketType.Flags, want))
	}
	return nil
}
