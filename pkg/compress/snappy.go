package compress

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// streamIdentifier is the chunk every snappy framed stream starts with. The
// snappy writer omits it when nothing is written.
var streamIdentifier = []byte("\xff\x06\x00\x00sNaPpY")

const (
	// endChunkType is a reserved skippable chunk type. Standard framed readers
	// ignore it.
	endChunkType = 0x80
	// endChunkSize is the chunk header plus a 4-byte raw length.
	endChunkSize = 4 + 4
)

// Snappy implements Codec with the snappy framing format. The framing format
// has no end-of-stream marker, so every frame ends with a skippable chunk that
// records the raw length; a frame cut at a chunk boundary is rejected.
type Snappy struct {
	maxDecoded int
}

// NewSnappy returns a snappy codec whose Decompress output is limited to
// maxDecoded bytes. A non-positive limit selects DefaultMaxDecodedSize.
func NewSnappy(maxDecoded int) *Snappy {
	if maxDecoded <= 0 {
		maxDecoded = DefaultMaxDecodedSize
	}
	return &Snappy{maxDecoded: maxDecoded}
}

func (s *Snappy) ID() ID       { return IDSnappy }
func (s *Snappy) Name() string { return "snappy" }

// Compress writes src as a complete framed stream followed by the end chunk.
func (s *Snappy) Compress(src []byte) ([]byte, error) {
	if uint64(len(src)) > uint64(^uint32(0)) {
		return nil, compressionError(s.Name(), errors.Newf("input of %d bytes is too large", len(src)))
	}

	var buf bytes.Buffer
	if len(src) == 0 {
		buf.Write(streamIdentifier)
	} else {
		w := snappy.NewBufferedWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, compressionError(s.Name(), err)
		}
		if err := w.Close(); err != nil {
			return nil, compressionError(s.Name(), err)
		}
	}

	var end [endChunkSize]byte
	end[0] = endChunkType
	end[1] = endChunkSize - 4 // 24-bit little-endian body length
	binary.LittleEndian.PutUint32(end[4:], uint32(len(src)))
	buf.Write(end[:])
	return buf.Bytes(), nil
}

// Decompress reads a complete framed stream. The chunk CRCs inside the frame
// are checked by the snappy reader, and the decoded length must match the end
// chunk.
func (s *Snappy) Decompress(src []byte) ([]byte, error) {
	if len(src) < len(streamIdentifier)+endChunkSize {
		return nil, decompressionError(s.Name(), errors.Newf("frame too short: %d bytes", len(src)))
	}

	body, end := src[:len(src)-endChunkSize], src[len(src)-endChunkSize:]
	if end[0] != endChunkType || end[1] != endChunkSize-4 || end[2] != 0 || end[3] != 0 {
		return nil, decompressionError(s.Name(), errors.New("missing end chunk, frame truncated"))
	}
	want := binary.LittleEndian.Uint32(end[4:])
	if uint64(want) > uint64(s.maxDecoded) {
		return nil, decompressionError(s.Name(), errors.Newf("decoded size exceeds %d bytes", s.maxDecoded))
	}

	r := snappy.NewReader(bytes.NewReader(body))
	out, err := io.ReadAll(io.LimitReader(r, int64(want)+1))
	if err != nil {
		return nil, decompressionError(s.Name(), err)
	}
	if len(out) != int(want) {
		return nil, decompressionError(s.Name(), errors.Newf("decoded %d bytes, end chunk records %d", len(out), want))
	}
	return out, nil
}
