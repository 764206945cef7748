package compress

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// Zstd implements Codec with single zstd frames. The encoder and decoder are
// created on first use and shared; EncodeAll and DecodeAll are safe for
// concurrent callers.
type Zstd struct {
	maxDecoded int

	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

// NewZstd returns a zstd codec whose Decompress output is limited to
// maxDecoded bytes. A non-positive limit selects DefaultMaxDecodedSize.
func NewZstd(maxDecoded int) *Zstd {
	if maxDecoded <= 0 {
		maxDecoded = DefaultMaxDecodedSize
	}
	return &Zstd{maxDecoded: maxDecoded}
}

func (z *Zstd) ID() ID       { return IDZstd }
func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) init() error {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
			zstd.WithZeroFrames(true),
		)
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(uint64(z.maxDecoded)),
		)
	})
	return z.err
}

// Compress emits one frame, including for empty input.
func (z *Zstd) Compress(src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, compressionError(z.Name(), err)
	}
	return z.enc.EncodeAll(src, nil), nil
}

// Decompress decodes a buffer holding one or more complete frames.
func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, decompressionError(z.Name(), err)
	}
	if len(src) == 0 {
		return nil, decompressionError(z.Name(), errors.New("empty frame"))
	}

	out, err := z.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, decompressionError(z.Name(), err)
	}
	if len(out) > z.maxDecoded {
		return nil, decompressionError(z.Name(), errors.Newf("decoded size exceeds %d bytes", z.maxDecoded))
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}
