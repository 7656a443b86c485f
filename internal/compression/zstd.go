// Package compression provides optional zstd coding for blocks at rest.
//
// Hashing always happens over the uncompressed canonical bytes, so a
// compressed block still verifies against its content address after decode.
package compression

import (
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses block payloads. A disabled codec passes
// bytes through untouched.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	enabled bool
}

// minEncodeSize skips compression for payloads too small to win anything.
const minEncodeSize = 128

// NewCodec builds a codec at the given level (1 fastest, 2 default,
// 3 better compression). Any other level falls back to the default speed.
func NewCodec(level int, enabled bool) (*Codec, error) {
	if !enabled {
		return &Codec{enabled: false}, nil
	}

	var encoderLevel zstd.EncoderLevel
	switch level {
	case 1:
		encoderLevel = zstd.SpeedFastest
	case 3:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedDefault
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &Codec{encoder: encoder, decoder: decoder, enabled: true}, nil
}

// Encode compresses data, returning it unchanged when compression is
// disabled or does not shrink the payload.
func (c *Codec) Encode(data []byte) []byte {
	if !c.enabled || len(data) < minEncodeSize {
		return data
	}

	compressed := c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data
	}
	return compressed
}

// Decode decompresses data. Payloads stored uncompressed (small blocks,
// incompressible content) are returned as-is.
func (c *Codec) Decode(data []byte) []byte {
	if !c.enabled {
		return data
	}

	decompressed, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return data
	}
	return decompressed
}

// Close releases encoder and decoder resources.
func (c *Codec) Close() error {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}
