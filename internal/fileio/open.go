// Package fileio opens annotation inputs and creates annotated outputs.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Reader is a buffered reader over a plain or gzip-compressed input.
// BGZF files are multi-member gzip streams and are read the same way.
type Reader struct {
	*bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
}

// Open opens path for reading, transparently decompressing gzip input.
// The path "-" reads from stdin.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.file = file
	return r, nil
}

// NewReader wraps an io.Reader, detecting the gzip magic number (0x1f, 0x8b).
func NewReader(src io.Reader) (*Reader, error) {
	br := bufio.NewReader(src)

	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header: %w", err)
	}

	r := &Reader{Reader: br}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.Reader = bufio.NewReader(r.gzipReader)
	}
	return r, nil
}

// NextLine returns the next line without its terminator. A final line
// without a newline is returned with a nil error; io.EOF follows it.
func (r *Reader) NextLine() (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return trimEOL(line), nil
		}
		return "", err
	}
	return trimEOL(line), nil
}

func trimEOL(line string) string {
	n := len(line)
	for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
		n--
	}
	return line[:n]
}

// Close closes the decompressor and the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
