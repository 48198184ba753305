package storage

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the size above which entries.content and
// entries.tool_summary are zstd-compressed before storage. Most lines are
// small; only large tool outputs or raw content blobs benefit.
const compressThreshold = 2048

const (
	blobRaw  byte = 0x00
	blobZstd byte = 0x01
)

var (
	zstdEncoder     *zstd.Encoder
	zstdDecoder     *zstd.Decoder
	zstdCodecInitMu sync.Once
	zstdCodecInit   error
)

func zstdCodec() error {
	zstdCodecInitMu.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			zstdCodecInit = err
			return
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			zstdCodecInit = err
			return
		}
		zstdEncoder = enc
		zstdDecoder = dec
	})
	return zstdCodecInit
}

// compressBlob encodes s for storage: a one-byte tag followed by either
// the raw bytes (small inputs, or compression init failure) or a zstd
// frame (inputs at or above compressThreshold).
func compressBlob(s string) []byte {
	if s == "" {
		return nil
	}
	if len(s) < compressThreshold || zstdCodec() != nil {
		return append([]byte{blobRaw}, s...)
	}
	compressed := zstdEncoder.EncodeAll([]byte(s), nil)
	return append([]byte{blobZstd}, compressed...)
}

// decompressBlob reverses compressBlob.
func decompressBlob(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	tag, payload := b[0], b[1:]
	switch tag {
	case blobRaw:
		return string(payload), nil
	case blobZstd:
		if err := zstdCodec(); err != nil {
			return "", fmt.Errorf("zstd codec unavailable: %w", err)
		}
		out, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return "", fmt.Errorf("zstd decode: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown blob tag %#x", tag)
	}
}
