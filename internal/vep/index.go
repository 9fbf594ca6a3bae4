package vep

import (
	"errors"
	"io"

	"go.uber.org/zap"
)

// Index maps region keys to the records reported for that region, in
// report order. It is read-only once built.
type Index struct {
	records map[string][]Record
	keys    []string
	count   int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{records: make(map[string][]Record)}
}

// Add appends r to the list under its region key.
func (ix *Index) Add(r Record) {
	key := r.Key()
	if _, ok := ix.records[key]; !ok {
		ix.keys = append(ix.keys, key)
	}
	ix.records[key] = append(ix.records[key], r)
	ix.count++
}

// Lookup returns the records for an exact region key, or nil.
func (ix *Index) Lookup(key string) []Record {
	return ix.records[key]
}

// Len returns the number of distinct region keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// RecordCount returns the total number of records.
func (ix *Index) RecordCount() int {
	return ix.count
}

// Keys returns region keys in first-seen order.
func (ix *Index) Keys() []string {
	return ix.keys
}

// BuildOptions controls how malformed report rows are handled.
type BuildOptions struct {
	Layout Layout
	// Strict fails on the first malformed row instead of logging and
	// skipping it.
	Strict bool
	Logger *zap.Logger
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Build parses the annotation report at path into an index.
//
// The returned index is never nil: on a read failure, or a malformed row
// in strict mode, it holds every record parsed before the failure and the
// error is returned alongside it. An unusable header is reported as a
// *ParseError with Header set, whatever the mode.
func Build(path string, opts BuildOptions) (*Index, error) {
	p, err := NewParser(path, opts.Layout)
	if err != nil {
		return NewIndex(), err
	}
	defer p.Close()

	return build(p, opts)
}

// BuildFromReader parses an annotation report from r into an index.
func BuildFromReader(r io.Reader, opts BuildOptions) (*Index, error) {
	p, err := NewParserFromReader(r, opts.Layout)
	if err != nil {
		return NewIndex(), err
	}
	return build(p, opts)
}

func build(p *Parser, opts BuildOptions) (*Index, error) {
	log := opts.logger()
	ix := NewIndex()
	skipped := 0
	log.Debug("report columns resolved",
		zap.Int("header_columns", len(p.Header())),
		zap.Any("columns", p.Columns()))

	for {
		rec, err := p.Next()
		if err != nil {
			var pe *ParseError
			if !opts.Strict && errors.As(err, &pe) {
				log.Warn("skipping malformed annotation row",
					zap.String("path", pe.Path),
					zap.Int("line", pe.Line),
					zap.String("reason", pe.Message))
				skipped++
				continue
			}
			return ix, err
		}
		if rec == nil {
			break
		}
		ix.Add(*rec)
	}

	log.Debug("annotation index built",
		zap.Int("regions", ix.Len()),
		zap.Int("records", ix.RecordCount()),
		zap.Int("skipped", skipped))
	return ix, nil
}
