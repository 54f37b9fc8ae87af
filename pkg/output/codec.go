package output

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec selects an optional compression stream wrapped around an encoded image
type Codec string

const (
	CodecNone   Codec = "none"
	CodecZstd   Codec = "zstd"
	CodecSnappy Codec = "snappy"
)

// ParseCodec converts a flag or config value into a Codec. An empty name means none.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case "", CodecNone:
		return CodecNone, nil
	case CodecZstd, CodecSnappy:
		return Codec(name), nil
	default:
		return "", fmt.Errorf("unknown compression %q (expected none, zstd or snappy)", name)
	}
}

// Extension returns the file suffix appended for this codec
func (c Codec) Extension() string {
	switch c {
	case CodecZstd:
		return ".zst"
	case CodecSnappy:
		return ".sz"
	default:
		return ""
	}
}

// ContentType returns the MIME type of the compressed stream, or "" for CodecNone
func (c Codec) ContentType() string {
	switch c {
	case CodecZstd:
		return "application/zstd"
	case CodecSnappy:
		return "application/x-snappy-framed"
	default:
		return ""
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w in the codec's compressor. Close flushes the compressor
// but never closes w.
func NewWriter(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case "", CodecNone:
		return nopWriteCloser{w}, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, nil
	case CodecSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

// NewReader undoes NewWriter
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case "", CodecNone:
		return io.NopCloser(r), nil
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CodecSnappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
