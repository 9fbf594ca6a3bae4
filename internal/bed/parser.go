// Package bed provides BED interval file reading and writing.
package bed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/io/featio"
	"github.com/biogo/biogo/io/featio/bed"

	"github.com/inodb/bedanno/internal/fileio"
)

// Interval is one record of a BED file. Start is 0-based, End exclusive;
// both are passed through as written. Columns past the fourth are not kept.
type Interval struct {
	Chrom string
	Start int64
	End   int64
	Name  string // column 4, empty if absent
}

// Parser reads intervals from a BED file.
//
// Lines are decoded by biogo's BED3 and BED4 readers. Both read from a
// lineFeed that holds at most one data line, so each row is decoded as
// BED4 when it has a name column and as BED3 otherwise.
type Parser struct {
	feed *lineFeed
	bed3 featio.Reader
	bed4 featio.Reader
	path string
}

// NewParser opens a BED file for reading. Gzipped and bgzipped files are
// decompressed transparently; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	p, err := newParser(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	p.path = path
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	fr, err := fileio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open bed stream: %w", err)
	}
	return newParser(fr)
}

func newParser(r *fileio.Reader) (*Parser, error) {
	feed := &lineFeed{reader: r}
	bed3, err := bed.NewReader(feed, 3)
	if err != nil {
		return nil, fmt.Errorf("bed3 reader: %w", err)
	}
	bed4, err := bed.NewReader(feed, 4)
	if err != nil {
		return nil, fmt.Errorf("bed4 reader: %w", err)
	}
	return &Parser{feed: feed, bed3: bed3, bed4: bed4}, nil
}

// Next reads the next interval. Blank lines and "#", "track" and "browser"
// lines are skipped. Returns nil, nil when there are no more intervals.
// A *ParseError leaves the parser positioned after the bad line.
func (p *Parser) Next() (*Interval, error) {
	fields, err := p.feed.load()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read bed line: %w", err)
	}
	if fields < 3 {
		p.feed.discard()
		return nil, p.errorf("expected at least 3 columns, found %d", fields)
	}

	r := p.bed3
	if fields > 3 {
		r = p.bed4
	}
	f, err := r.Read()
	p.feed.discard()
	if err != nil {
		return nil, p.errorf("%s", decodeReason(err))
	}

	switch f := f.(type) {
	case *bed.Bed3:
		return &Interval{Chrom: f.Chrom, Start: int64(f.ChromStart), End: int64(f.ChromEnd)}, nil
	case *bed.Bed4:
		return &Interval{Chrom: f.Chrom, Start: int64(f.ChromStart), End: int64(f.ChromEnd), Name: f.FeatName}, nil
	}
	return nil, p.errorf("unexpected feature %T", f)
}

// decodeReason drops the reader's own position from a decode error; the
// reader only sees data lines, so its line count is not the file's.
func decodeReason(err error) string {
	var ce *csv.ParseError
	if errors.As(err, &ce) && ce.Err != nil {
		return ce.Err.Error()
	}
	return err.Error()
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Path: p.path, Line: p.feed.lineNumber, Message: fmt.Sprintf(format, args...)}
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.feed.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	return p.feed.reader.Close()
}

// lineFeed serves one data line at a time to the BED readers. Read reports
// io.EOF once the loaded line has been consumed, so a reader can never
// buffer past the row it was asked to decode.
type lineFeed struct {
	reader     *fileio.Reader
	pending    []byte
	lineNumber int
}

// load advances to the next data line and returns its column count.
func (f *lineFeed) load() (int, error) {
	for {
		line, err := f.reader.NextLine()
		if err != nil {
			return 0, err
		}
		f.lineNumber++

		if line == "" || isHeaderLine(line) {
			continue
		}
		f.pending = append(append(f.pending[:0], line...), '\n')
		return strings.Count(line, "\t") + 1, nil
	}
}

func (f *lineFeed) discard() {
	f.pending = f.pending[:0]
}

func (f *lineFeed) Read(b []byte) (int, error) {
	if len(f.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(b, f.pending)
	f.pending = f.pending[n:]
	return n, nil
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "track") ||
		strings.HasPrefix(line, "browser")
}

// ParseError represents a malformed BED line.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bed parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("bed parse error at %s:%d: %s", e.Path, e.Line, e.Message)
}
