package trace

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compression defines the compression algorithm used for trace files
type Compression int

const (
	// NoCompression indicates no compression
	NoCompression Compression = iota
	// ZstdCompression indicates Zstandard compression
	ZstdCompression
)

// DefaultCompression is the default compression algorithm
var DefaultCompression = ZstdCompression

// NewCompressedWriter returns a writer that compresses data before writing
func NewCompressedWriter(w io.Writer, c Compression) io.Writer {
	if c == NoCompression {
		return w
	}

	// Currently we only support Zstd
	encoder, _ := zstd.NewWriter(w)
	return encoder
}

// NewCompressedReader returns a reader that decompresses data after reading
func NewCompressedReader(r io.Reader, c Compression) (io.Reader, error) {
	if c == NoCompression {
		return r, nil
	}

	// Currently we only support Zstd
	return zstd.NewReader(r)
}

// CloseCompressedWriter closes the compressed writer if needed
func CloseCompressedWriter(w io.Writer, c Compression) error {
	if c == NoCompression {
		return nil
	}

	if zw, ok := w.(*zstd.Encoder); ok {
		return zw.Close()
	}
	return nil
}
