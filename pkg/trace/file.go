package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// zstd frame magic, used to detect compressed trace files on read.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// WriteOptions contains options for writing a trace file
type WriteOptions struct {
	Compression Compression
}

// DefaultWriteOptions returns default options for writing trace files
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		Compression: DefaultCompression,
	}
}

// WriteFile writes a trace to path, one JSON event per line, with optional
// compression applied to the whole stream.
func WriteFile(path string, t *Trace, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bufWriter := bufio.NewWriter(f)
	writer := NewCompressedWriter(bufWriter, opts.Compression)

	for _, e := range t.Events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := writer.Write(data); err != nil {
			return err
		}
		if _, err := writer.Write([]byte{'\n'}); err != nil {
			return err
		}
	}

	if err := CloseCompressedWriter(writer, opts.Compression); err != nil {
		return err
	}
	return bufWriter.Flush()
}

// ReadFile reads a trace from path, detecting zstd compression from the
// stream magic.
func ReadFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	compression := NoCompression
	if magic, err := br.Peek(len(zstdMagic)); err == nil && bytes.Equal(magic, zstdMagic) {
		compression = ZstdCompression
	}

	reader, err := NewCompressedReader(br, compression)
	if err != nil {
		return nil, err
	}

	return Read(reader)
}

// Read decodes a trace from an uncompressed JSON-lines stream.
func Read(r io.Reader) (*Trace, error) {
	t := &Trace{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Events = append(t.Events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
