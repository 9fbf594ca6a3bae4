// Package annotate attaches transcript-level annotation labels to BED
// intervals.
package annotate

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/bedanno/internal/bed"
	"github.com/inodb/bedanno/internal/vep"
)

// AnnotationLookup finds the records reported for an exact region key.
type AnnotationLookup interface {
	Lookup(key string) []vep.Record
}

// TranscriptFilter decides whether a transcript's annotations are kept.
type TranscriptFilter interface {
	Accepts(transcriptID string) bool
}

// IntervalReader yields intervals; nil, nil marks the end of input.
type IntervalReader interface {
	Next() (*bed.Interval, error)
}

// IntervalWriter writes an interval with a rewritten name field.
type IntervalWriter interface {
	Write(iv *bed.Interval, name string) error
	Flush() error
}

// Stats summarizes an annotation run.
type Stats struct {
	Intervals int // intervals written
	Annotated int // intervals that received at least one label
	Labels    int // labels written
	Skipped   int // malformed intervals skipped
}

// Annotator rewrites interval names with annotation labels.
type Annotator struct {
	index      AnnotationLookup
	filter     TranscriptFilter
	exonIntron bool
	strict     bool
	logger     *zap.Logger
}

// NewAnnotator creates an annotator over the given index. Labels include
// the exon/intron tag by default.
func NewAnnotator(index AnnotationLookup) *Annotator {
	return &Annotator{
		index:      index,
		exonIntron: true,
		logger:     zap.NewNop(),
	}
}

// SetTranscriptFilter restricts labels to accepted transcripts.
func (a *Annotator) SetTranscriptFilter(f TranscriptFilter) {
	a.filter = f
}

// SetExonIntron configures whether labels carry the exon/intron tag.
func (a *Annotator) SetExonIntron(include bool) {
	a.exonIntron = include
}

// SetStrict configures whether a malformed interval aborts Run.
func (a *Annotator) SetStrict(strict bool) {
	a.strict = strict
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// IntervalKey returns the region key for an interval.
func IntervalKey(iv *bed.Interval) string {
	return vep.RegionKey(iv.Chrom, strconv.FormatInt(iv.Start, 10), strconv.FormatInt(iv.End, 10))
}

// Labels returns the formatted labels for an interval in match order.
func (a *Annotator) Labels(iv *bed.Interval) []string {
	recs := a.index.Lookup(IntervalKey(iv))
	if len(recs) == 0 {
		return nil
	}

	labels := make([]string, 0, len(recs))
	for _, r := range recs {
		if a.filter != nil && !a.filter.Accepts(r.Feature) {
			continue
		}
		labels = append(labels, FormatLabel(r, a.exonIntron))
	}
	return labels
}

// Run annotates every interval from r, in order, and writes it to w.
// Malformed intervals are logged and skipped unless strict. The writer is
// flushed on every return path.
func (a *Annotator) Run(r IntervalReader, w IntervalWriter) (stats Stats, err error) {
	defer func() {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flush output: %w", ferr)
		}
	}()

	for {
		iv, rerr := r.Next()
		if rerr != nil {
			var pe *bed.ParseError
			if !a.strict && errors.As(rerr, &pe) {
				a.logger.Warn("skipping malformed interval",
					zap.String("path", pe.Path),
					zap.Int("line", pe.Line),
					zap.String("reason", pe.Message))
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("read interval: %w", rerr)
		}
		if iv == nil {
			break
		}

		labels := a.Labels(iv)
		if err := w.Write(iv, JoinName(iv.Name, labels)); err != nil {
			return stats, fmt.Errorf("write interval: %w", err)
		}

		stats.Intervals++
		stats.Labels += len(labels)
		if len(labels) > 0 {
			stats.Annotated++
		}
	}

	if stats.Intervals == 0 {
		a.logger.Info("0 intervals processed")
	}
	return stats, nil
}
