package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type Compression uint8

const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	}
	return "unknown"
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// DetectCompression guesses the payload encoding from its leading bytes.
func DetectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, zstdMagic):
		return CompressionZstd
	}
	return CompressionNone
}

func Compress(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionGzip:
		var buffer bytes.Buffer
		writer, _ := gzip.NewWriterLevel(&buffer, gzip.BestCompression)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("failed to compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("failed to compress: %w", err)
		}
		return buffer.Bytes(), nil

	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to compress: %w", err)
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	}

	return nil, fmt.Errorf("compression not supported (%v)", compression)
}

// Decompress inflates gzip or zstd payloads and returns other data unchanged.
func Decompress(data []byte) ([]byte, Compression, error) {
	compression := DetectCompression(data)
	switch compression {
	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, compression, fmt.Errorf("failed to decompress: %w", err)
		}
		defer reader.Close()

		result, err := io.ReadAll(reader)
		if err != nil {
			return nil, compression, fmt.Errorf("failed to decompress: %w", err)
		}
		return result, compression, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, compression, fmt.Errorf("failed to decompress: %w", err)
		}
		defer decoder.Close()

		result, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, compression, fmt.Errorf("failed to decompress: %w", err)
		}
		return result, compression, nil
	}

	return data, compression, nil
}
