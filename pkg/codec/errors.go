package codec

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("codec: malformed packet")
	// ErrChecksumMismatch is returned by verified decoding when the stored crc
	// does not match the compressed payload.
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")
	// ErrPayloadTooLarge is returned by Encode when the compressed payload
	// exceeds the codec limit.
	ErrPayloadTooLarge = errors.New("codec: payload too large")
	// ErrInvalidTag is returned by Encode for kinds or reactions outside the
	// schema catalog, which Decode would reject.
	ErrInvalidTag = errors.New("codec: tag out of range")
	// ErrNilPacket is returned when a nil *Packet is passed to Encode.
	ErrNilPacket = errors.New("codec: nil packet")
)

// DecodeError describes why a wire buffer could not be parsed.
type DecodeError struct {
	Offset int    // byte offset at which parsing stopped
	Reason string // human readable cause
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: decode packet at offset %d: %s", e.Offset, e.Reason)
}

// Is lets errors.Is(err, ErrDecode) match any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErrorf(offset int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
