package codec

import (
	"github.com/ssargent/packetwire/pkg/checksum"
	"github.com/ssargent/packetwire/pkg/compress"
)

// defaultCompression is shared by packets built without WithCompression.
var defaultCompression compress.Codec = compress.NewSnappy(compress.DefaultMaxDecodedSize)

// Packet is a tagged, checksummed, compressed payload.
//
// A Packet is immutable after construction. The payload is held compressed and
// decompressed again on every call to Payload.
type Packet struct {
	kind        Kind
	reaction    ReactionKind
	hasReaction bool
	compression compress.Codec
	payload     []byte // compressed
	crc         uint32 // checksum of payload
	serialized  bool
}

// PacketOption configures NewPacket.
type PacketOption func(*Packet)

// WithReaction attaches a reaction tag. It is accepted on any kind.
func WithReaction(r ReactionKind) PacketOption {
	return func(p *Packet) {
		p.reaction = r
		p.hasReaction = true
	}
}

// WithCompression selects the payload codec. A nil codec leaves the default.
func WithCompression(c compress.Codec) PacketOption {
	return func(p *Packet) {
		if c != nil {
			p.compression = c
		}
	}
}

// NewPacket compresses raw and computes the checksum over the compressed
// bytes. raw is not retained.
func NewPacket(kind Kind, raw []byte, opts ...PacketOption) (*Packet, error) {
	p := &Packet{
		kind:        kind,
		compression: defaultCompression,
	}
	for _, opt := range opts {
		opt(p)
	}

	compressed, err := p.compression.Compress(raw)
	if err != nil {
		return nil, err
	}
	p.payload = compressed
	p.crc = checksum.Sum(compressed)
	return p, nil
}

// Kind returns the packet kind.
func (p *Packet) Kind() Kind { return p.kind }

// ReactionKind returns the reaction tag and whether one is present.
func (p *Packet) ReactionKind() (ReactionKind, bool) {
	return p.reaction, p.hasReaction
}

// Payload decompresses and returns the original bytes. The result is not
// cached; each call pays the decompression cost.
func (p *Packet) Payload() ([]byte, error) {
	return p.compression.Decompress(p.payload)
}

// Serialized reports whether this instance is the in-flight copy of an
// encode. It is always false for packets returned by NewPacket and Decode.
func (p *Packet) Serialized() bool { return p.serialized }

// CRC returns the checksum computed at construction.
func (p *Packet) CRC() uint32 { return p.crc }

// Compression returns the payload codec.
func (p *Packet) Compression() compress.Codec { return p.compression }

// CompressedPayload returns a copy of the stored compressed bytes.
func (p *Packet) CompressedPayload() []byte {
	return append([]byte(nil), p.payload...)
}

// CompressedSize returns the length of the stored compressed payload.
func (p *Packet) CompressedSize() int { return len(p.payload) }

// Verify recomputes the checksum over the compressed payload and compares it
// with the stored crc. Decode never calls it.
func (p *Packet) Verify() bool {
	return checksum.Verify(p.payload, p.crc)
}

// Verify reports whether p's stored crc matches its compressed payload.
func Verify(p *Packet) bool {
	return p != nil && p.Verify()
}
