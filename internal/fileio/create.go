package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/pierrec/lz4"
)

// Output compression formats.
const (
	CompressionNone = "none"
	CompressionBGZF = "bgzf"
	CompressionLZ4  = "lz4"
)

// annotatedSuffix is appended to the interval file's base name.
const annotatedSuffix = "_Annotated.bed"

// ValidCompression reports whether format is a supported output compression.
func ValidCompression(format string) bool {
	switch format {
	case "", CompressionNone, CompressionBGZF, CompressionLZ4:
		return true
	}
	return false
}

// Extension returns the filename extension added for a compression format.
func Extension(format string) string {
	switch format {
	case CompressionBGZF:
		return ".gz"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// OutputPath derives the annotated output path for an interval file:
// everything in the base name from the first dot on is replaced with
// "_Annotated.bed", and the file sits next to its input.
// "dir/regions.bed" becomes "dir/regions_Annotated.bed".
func OutputPath(intervalPath, compression string) string {
	dir, base := filepath.Split(intervalPath)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" || intervalPath == "-" {
		base = "stdin"
	}
	return filepath.Join(dir, base+annotatedSuffix+Extension(compression))
}

// compressedFile closes the compressor before the file it writes to.
type compressedFile struct {
	io.WriteCloser
	file *os.File
}

func (c *compressedFile) Close() error {
	err := c.WriteCloser.Close()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create creates (truncating) the output file at path, wrapped in the
// requested compression.
func Create(path, compression string) (io.WriteCloser, error) {
	if !ValidCompression(compression) {
		return nil, fmt.Errorf("unknown compression %q", compression)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch compression {
	case CompressionBGZF:
		return &compressedFile{WriteCloser: bgzf.NewWriter(f, 1), file: f}, nil
	case CompressionLZ4:
		return &compressedFile{WriteCloser: lz4.NewWriter(f), file: f}, nil
	default:
		return f, nil
	}
}
