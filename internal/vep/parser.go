package vep

import (
	"fmt"
	"io"
	"strings"

	"github.com/inodb/bedanno/internal/fileio"
)

// Parser reads annotation records from a tab-delimited report.
//
// Lines starting with "##" are metadata and always skipped. Unless the
// layout fixes column positions, the first remaining line is the header
// (a leading "#" is stripped, as in "#Uploaded_variation"). Later lines
// starting with "#" are comments.
type Parser struct {
	reader     *fileio.Reader
	path       string
	lineNumber int
	layout     Layout
	columns    ColumnIndices
	header     []string
}

// NewParser opens an annotation report and reads its header.
func NewParser(path string, layout Layout) (*Parser, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation report: %w", err)
	}

	p := &Parser{reader: r, path: path, layout: layout}
	if err := p.init(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader, layout Layout) (*Parser, error) {
	fr, err := fileio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open annotation stream: %w", err)
	}

	p := &Parser{reader: fr, layout: layout}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) init() error {
	if p.layout.Indices != nil {
		p.columns = *p.layout.Indices
		if err := p.columns.validate(p.layout.Names); err != nil {
			return p.headerErrorf("%v", err)
		}
		return nil
	}
	return p.parseHeader()
}

// parseHeader reads the header line and resolves column indices.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.NextLine()
		if err != nil {
			if err == io.EOF {
				return p.headerErrorf("no header line found")
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		if line == "" || strings.HasPrefix(line, "##") {
			continue
		}

		p.header = strings.Split(strings.TrimPrefix(line, "#"), "\t")
		p.columns = p.layout.Names.resolve(p.header)
		if err := p.columns.validate(p.layout.Names); err != nil {
			return p.headerErrorf("%v in header", err)
		}
		return nil
	}
}

// Next reads the next record. Returns nil, nil at end of input.
// A *ParseError leaves the parser positioned after the bad row, so
// callers may log it and continue.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.NextLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read annotation line: %w", err)
		}
		p.lineNumber++

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return p.parseLine(line)
	}
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")

	if n := p.columns.minFields(); len(fields) < n {
		return nil, p.errorf("expected at least %d columns, found %d", n, len(fields))
	}

	rec := &Record{
		Feature:      fields[p.columns.Feature],
		Symbol:       fields[p.columns.Symbol],
		HGVSc:        fields[p.columns.HGVSc],
		ExonNumber:   optional(fields, p.columns.Exon),
		IntronNumber: optional(fields, p.columns.Intron),
	}

	if p.columns.hasRegion() {
		rec.Chrom = fields[p.columns.Chromosome]
		rec.Start = fields[p.columns.Start]
		rec.End = fields[p.columns.End]
	} else {
		var ok bool
		rec.Chrom, rec.Start, rec.End, ok = ParseLocation(fields[p.columns.Location])
		if !ok {
			return nil, p.errorf("invalid location: %s", fields[p.columns.Location])
		}
	}

	return rec, nil
}

// optional returns a column value, or "" when the column is absent,
// missing from the row, or holds the "-" placeholder.
func optional(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	v := fields[idx]
	if v == "-" {
		return ""
	}
	return v
}

// ParseLocation splits a "chrom:start-end" location. A single position
// "chrom:pos" yields start and end both equal to pos.
func ParseLocation(loc string) (chrom, start, end string, ok bool) {
	i := strings.LastIndexByte(loc, ':')
	if i <= 0 || i == len(loc)-1 {
		return "", "", "", false
	}
	chrom, rng := loc[:i], loc[i+1:]

	if j := strings.IndexByte(rng, '-'); j >= 0 {
		start, end = rng[:j], rng[j+1:]
	} else {
		start, end = rng, rng
	}
	if start == "" || end == "" {
		return "", "", "", false
	}
	return chrom, start, end, true
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Path: p.path, Line: p.lineNumber, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) headerErrorf(format string, args ...any) *ParseError {
	pe := p.errorf(format, args...)
	pe.Header = true
	return pe
}

// Header returns the header columns, or nil for a headerless layout.
func (p *Parser) Header() []string {
	return p.header
}

// Columns returns the resolved column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	return p.reader.Close()
}

// ParseError represents a malformed report header or row with line context.
// Header is set when the columns could not be located, in which case no
// row of the report can be read.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Header  bool
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("annotation parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("annotation parse error at %s:%d: %s", e.Path, e.Line, e.Message)
}
