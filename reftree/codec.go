package reftree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// errIncompressible signals that LZ4 could not shrink the payload; callers
// fall back to storing it raw.
var errIncompressible = errors.New("reftree: incompressible payload")

// Compression selects the snapshot payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4
	// CompressionZstd uses zstd at its default level.
	CompressionZstd
)

// String returns a string representation of the Compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func compressPayload(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		// Block format: uncompressed length prefix, then the block.
		buf := make([]byte, 8+lz4.CompressBlockBound(len(data)))
		binary.LittleEndian.PutUint64(buf, uint64(len(data)))
		n, err := lz4.CompressBlock(data, buf[8:], nil)
		if err != nil {
			return nil, fmt.Errorf("reftree: lz4 compress: %w", err)
		}
		if n == 0 {
			return nil, errIncompressible
		}
		return buf[:8+n], nil

	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("reftree: zstd encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	default:
		return nil, fmt.Errorf("reftree: unknown compression %v", c)
	}
}

func decompressPayload(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		if len(data) < 8 {
			return nil, fmt.Errorf("reftree: lz4 payload truncated")
		}
		size := binary.LittleEndian.Uint64(data)
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data[8:], out)
		if err != nil {
			return nil, fmt.Errorf("reftree: lz4 decompress: %w", err)
		}
		return out[:n], nil

	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("reftree: zstd decoder: %w", err)
		}
		defer dec.Close()
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("reftree: zstd decompress: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("reftree: unknown compression %v", c)
	}
}
