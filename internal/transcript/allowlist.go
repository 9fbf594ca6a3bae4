// Package transcript loads preferred-transcript allow-lists.
package transcript

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/fatih/set.v0"

	"github.com/inodb/bedanno/internal/fileio"
)

// AllowList is a set of accepted transcript identifiers. An empty (or nil)
// list accepts every transcript.
type AllowList struct {
	ids set.Interface
}

// NewAllowList creates an allow-list holding ids.
func NewAllowList(ids ...string) *AllowList {
	a := &AllowList{ids: set.New(set.NonThreadSafe)}
	for _, id := range ids {
		a.ids.Add(id)
	}
	return a
}

// Has reports whether id is in the list.
func (a *AllowList) Has(id string) bool {
	return a != nil && a.ids.Has(id)
}

// Len returns the number of identifiers.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return a.ids.Size()
}

// Accepts reports whether annotations on transcript id pass the filter.
func (a *AllowList) Accepts(id string) bool {
	return a.Len() == 0 || a.Has(id)
}

// IDs returns the identifiers in sorted order.
func (a *AllowList) IDs() []string {
	if a == nil {
		return nil
	}
	ids := make([]string, 0, a.ids.Size())
	for _, v := range a.ids.List() {
		ids = append(ids, v.(string))
	}
	sort.Strings(ids)
	return ids
}

// Options controls allow-list parsing.
type Options struct {
	// Strict fails on the first malformed line instead of skipping it.
	Strict bool
	Logger *zap.Logger
}

// Load reads an allow-list file. Each non-empty line is tab-delimited and
// its second column holds a transcript identifier; other columns are
// ignored. On error the identifiers read so far are returned with it.
func Load(path string, opts Options) (*AllowList, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return NewAllowList(), fmt.Errorf("open transcript file: %w", err)
	}
	defer r.Close()

	return parse(r, path, opts)
}

// Parse reads an allow-list from r.
func Parse(r io.Reader, opts Options) (*AllowList, error) {
	fr, err := fileio.NewReader(r)
	if err != nil {
		return NewAllowList(), fmt.Errorf("open transcript stream: %w", err)
	}
	return parse(fr, "", opts)
}

func parse(r *fileio.Reader, path string, opts Options) (*AllowList, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := NewAllowList()
	lineNumber := 0
	for {
		line, err := r.NextLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return a, nil
			}
			return a, fmt.Errorf("read transcript file: %w", err)
		}
		lineNumber++

		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[1] == "" {
			pe := &ParseError{Path: path, Line: lineNumber, Message: "expected a transcript identifier in column 2"}
			if opts.Strict {
				return a, pe
			}
			log.Warn("skipping malformed transcript line",
				zap.String("path", path),
				zap.Int("line", lineNumber))
			continue
		}
		a.ids.Add(fields[1])
	}
}

// ParseError represents a malformed allow-list line.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("transcript parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("transcript parse error at %s:%d: %s", e.Path, e.Line, e.Message)
}
