package bed

import (
	"bufio"
	"io"
	"strconv"
)

// Writer writes four-column BED records.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter creates a new BED writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes the interval's coordinates with name as the fourth column.
// Columns beyond the name are not written.
func (bw *Writer) Write(iv *Interval, name string) error {
	b := bw.buf[:0]
	b = append(b, iv.Chrom...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, iv.Start, 10)
	b = append(b, '\t')
	b = strconv.AppendInt(b, iv.End, 10)
	b = append(b, '\t')
	b = append(b, name...)
	b = append(b, '\n')
	bw.buf = b

	_, err := bw.w.Write(b)
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (bw *Writer) Flush() error {
	return bw.w.Flush()
}
