// Package compress provides the reversible payload transforms used by packets.
//
// Every codec here emits a self-describing frame: the compressed bytes carry
// their own identifiers and boundaries, so Decompress needs nothing but the
// buffer itself. Failures are reported as errors that match ErrCompression or
// ErrDecompression with errors.Is; nothing in this package panics on bad input.
package compress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ID identifies a codec on the wire. Values are part of the packet schema and
// must never be reassigned.
type ID uint8

const (
	// IDSnappy is the snappy framing format (stream identifier + CRC'd chunks).
	IDSnappy ID = 1
	// IDZstd is a single zstd frame.
	IDZstd ID = 2
)

// DefaultMaxDecodedSize bounds the output of Decompress.
const DefaultMaxDecodedSize = 64 << 20

var (
	// ErrCompression is returned when a codec cannot produce a frame.
	ErrCompression = errors.New("compress: compression failed")
	// ErrDecompression is returned for truncated, corrupted or oversized frames.
	ErrDecompression = errors.New("compress: decompression failed")
	// ErrUnknownCodec is returned by lookups for unregistered ids or names.
	ErrUnknownCodec = errors.New("compress: unknown codec")
)

// Codec compresses and decompresses whole buffers.
type Codec interface {
	ID() ID
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

func (id ID) String() string {
	switch id {
	case IDSnappy:
		return "snappy"
	case IDZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(id))
	}
}

// Registry resolves codecs by wire id or by name.
type Registry struct {
	byID map[ID]Codec
}

// NewRegistry builds a registry from codecs. Later codecs replace earlier ones
// with the same id.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{byID: make(map[ID]Codec, len(codecs))}
	for _, c := range codecs {
		r.byID[c.ID()] = c
	}
	return r
}

// NewDefaultRegistry returns a registry with every built-in codec, each bounded
// to maxDecoded bytes of output.
func NewDefaultRegistry(maxDecoded int) *Registry {
	return NewRegistry(NewSnappy(maxDecoded), NewZstd(maxDecoded))
}

// Lookup returns the codec registered under id.
func (r *Registry) Lookup(id ID) (Codec, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCodec, "id %d", uint8(id))
	}
	return c, nil
}

// ByName returns the codec whose Name matches name, ignoring case.
func (r *Registry) ByName(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range r.byID {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownCodec, "name %q", name)
}

// Names lists registered codec names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byID))
	for _, c := range r.byID {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

func compressionError(codec string, cause error) error {
	return errors.Wrapf(ErrCompression, "%s: %v", codec, cause)
}

func decompressionError(codec string, cause error) error {
	return errors.Wrapf(ErrDecompression, "%s: %v", codec, cause)
}
