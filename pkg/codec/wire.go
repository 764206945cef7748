package codec

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/ssargent/packetwire/pkg/checksum"
	"github.com/ssargent/packetwire/pkg/compress"
)

const (
	// SchemaVersion is the only wire layout this package reads or writes.
	SchemaVersion uint8 = 1

	// MinPacketSize is the length of a version 1 packet with no reaction tag
	// and an empty compressed payload.
	MinPacketSize = 4 + 4 + checksum.Size + 1

	// DefaultMaxPayloadBytes bounds the compressed payload length accepted by
	// Encode and Decode.
	DefaultMaxPayloadBytes = 8 << 20
)

const (
	flagAbsent  byte = 0
	flagPresent byte = 1
)

// PacketCodec converts packets to and from the flat wire layout.
//
// Layout (version 1, little-endian):
//
//	[Version(1)][Compression(1)][Kind(1)][ReactionFlag(1)][Reaction(1)?]
//	[PayloadLen(4)][Payload][CRC32(4)][Serialized(1)]
type PacketCodec struct {
	registry      *compress.Registry
	maxPayload    int
	allowTrailing bool
}

// CodecOption configures a PacketCodec.
type CodecOption func(*PacketCodec)

// WithRegistry sets the codecs Decode can resolve compression ids against.
func WithRegistry(r *compress.Registry) CodecOption {
	return func(c *PacketCodec) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithMaxPayloadBytes limits the compressed payload length. Non-positive
// values keep the default.
func WithMaxPayloadBytes(n int) CodecOption {
	return func(c *PacketCodec) {
		if n > 0 {
			c.maxPayload = n
		}
	}
}

// WithAllowTrailing makes Decode ignore bytes after the serialized flag
// instead of rejecting them.
func WithAllowTrailing() CodecOption {
	return func(c *PacketCodec) {
		c.allowTrailing = true
	}
}

// NewPacketCodec creates a codec. Without options it is strict, bounded to
// DefaultMaxPayloadBytes and resolves the built-in compression codecs.
func NewPacketCodec(opts ...CodecOption) *PacketCodec {
	c := &PacketCodec{
		maxPayload: DefaultMaxPayloadBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = compress.NewDefaultRegistry(compress.DefaultMaxDecodedSize)
	}
	return c
}

// Registry returns the compression codecs known to c.
func (c *PacketCodec) Registry() *compress.Registry { return c.registry }

// Size returns the encoded length of p.
func (p *Packet) Size() int {
	n := MinPacketSize + len(p.payload)
	if p.hasReaction {
		n++
	}
	return n
}

// Encode serializes p. The emitted serialized flag is always set; p itself is
// left unchanged.
func (c *PacketCodec) Encode(p *Packet) ([]byte, error) {
	if p == nil {
		return nil, ErrNilPacket
	}
	if len(p.payload) > c.maxPayload {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes exceeds limit of %d", len(p.payload), c.maxPayload)
	}
	if !p.kind.Valid() {
		return nil, errors.Wrapf(ErrInvalidTag, "packet kind %d", uint8(p.kind))
	}
	if p.hasReaction && !p.reaction.Valid() {
		return nil, errors.Wrapf(ErrInvalidTag, "reaction kind %d", uint8(p.reaction))
	}

	out := *p
	out.serialized = true

	buf := make([]byte, 0, out.Size())
	buf = append(buf, SchemaVersion, byte(out.compression.ID()), byte(out.kind))
	if out.hasReaction {
		buf = append(buf, flagPresent, byte(out.reaction))
	} else {
		buf = append(buf, flagAbsent)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.payload)))
	buf = append(buf, out.payload...)
	buf = binary.LittleEndian.AppendUint32(buf, out.crc)
	buf = append(buf, boolByte(out.serialized))

	return buf, nil
}

// Decode parses a wire buffer. The returned packet always reports
// Serialized() == false, and its crc is taken from the buffer as is: call
// Verify or DecodeVerified to check it.
func (c *PacketCodec) Decode(data []byte) (*Packet, error) {
	if len(data) < MinPacketSize {
		return nil, decodeErrorf(0, "buffer of %d bytes is shorter than minimum packet size %d", len(data), MinPacketSize)
	}

	off := 0
	if v := data[off]; v != SchemaVersion {
		return nil, decodeErrorf(off, "unsupported schema version %d", v)
	}
	off++

	id := compress.ID(data[off])
	comp, err := c.registry.Lookup(id)
	if err != nil {
		return nil, decodeErrorf(off, "unknown compression id %d", uint8(id))
	}
	off++

	p := &Packet{compression: comp}

	p.kind = Kind(data[off])
	if !p.kind.Valid() {
		return nil, decodeErrorf(off, "packet kind %d out of range", uint8(p.kind))
	}
	off++

	switch flag := data[off]; flag {
	case flagAbsent:
		off++
	case flagPresent:
		off++
		if len(data)-off < 4+checksum.Size+1+1 {
			return nil, decodeErrorf(off, "truncated after reaction flag")
		}
		p.reaction = ReactionKind(data[off])
		p.hasReaction = true
		if !p.reaction.Valid() {
			return nil, decodeErrorf(off, "reaction kind %d out of range", uint8(p.reaction))
		}
		off++
	default:
		return nil, decodeErrorf(off, "invalid reaction flag %d", flag)
	}

	payloadLen := binary.LittleEndian.Uint32(data[off:])
	off += 4

	remaining := len(data) - off - checksum.Size - 1
	if uint64(payloadLen) > uint64(c.maxPayload) {
		return nil, decodeErrorf(off-4, "payload length %d exceeds limit of %d", payloadLen, c.maxPayload)
	}
	if uint64(payloadLen) > uint64(remaining) {
		return nil, decodeErrorf(off-4, "payload length %d exceeds remaining %d bytes", payloadLen, remaining)
	}

	p.payload = append([]byte(nil), data[off:off+int(payloadLen)]...)
	off += int(payloadLen)

	p.crc = binary.LittleEndian.Uint32(data[off:])
	off += checksum.Size

	switch data[off] {
	case 0, 1:
	default:
		return nil, decodeErrorf(off, "invalid serialized flag %d", data[off])
	}
	off++

	if off != len(data) && !c.allowTrailing {
		return nil, decodeErrorf(off, "%d trailing bytes", len(data)-off)
	}

	p.serialized = false
	return p, nil
}

// DecodeVerified decodes data and rejects it when the stored crc does not
// match the compressed payload.
func (c *PacketCodec) DecodeVerified(data []byte) (*Packet, error) {
	p, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	if !p.Verify() {
		return nil, errors.Wrapf(ErrChecksumMismatch, "stored %08x, computed %08x", p.crc, checksum.Sum(p.payload))
	}
	return p, nil
}

// PeekVersion returns the schema version byte of a wire buffer without
// decoding the rest.
func PeekVersion(data []byte) (uint8, error) {
	if len(data) == 0 {
		return 0, decodeErrorf(0, "empty buffer")
	}
	return data[0], nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
