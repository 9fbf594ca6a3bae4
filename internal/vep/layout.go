package vep

import "fmt"

// Default report column names.
const (
	ColChromosome = "Chromosome"
	ColStart      = "Start"
	ColEnd        = "End"
	ColLocation   = "Location"
	ColFeature    = "Feature"
	ColSymbol     = "SYMBOL"
	ColHGVSc      = "HGVSc"
	ColExon       = "EXON"
	ColIntron     = "INTRON"
)

// ColumnNames maps record fields to report header names.
type ColumnNames struct {
	Chromosome string
	Start      string
	End        string
	Location   string // "chrom:start-end", used when the three region columns are absent
	Feature    string
	Symbol     string
	HGVSc      string
	Exon       string
	Intron     string
}

// DefaultColumnNames returns the header names used when none are configured.
func DefaultColumnNames() ColumnNames {
	return ColumnNames{
		Chromosome: ColChromosome,
		Start:      ColStart,
		End:        ColEnd,
		Location:   ColLocation,
		Feature:    ColFeature,
		Symbol:     ColSymbol,
		HGVSc:      ColHGVSc,
		Exon:       ColExon,
		Intron:     ColIntron,
	}
}

// ColumnIndices holds 0-based column positions; -1 means absent.
type ColumnIndices struct {
	Chromosome int
	Start      int
	End        int
	Location   int
	Feature    int
	Symbol     int
	HGVSc      int
	Exon       int
	Intron     int
}

// DefaultColumnIndices is the positional layout of a headerless report:
// chromosome, start, end, transcript, symbol, HGVSc, exon, intron.
func DefaultColumnIndices() ColumnIndices {
	return ColumnIndices{
		Chromosome: 0,
		Start:      1,
		End:        2,
		Location:   -1,
		Feature:    3,
		Symbol:     4,
		HGVSc:      5,
		Exon:       6,
		Intron:     7,
	}
}

// Layout describes how report columns are located. When Indices is set
// the report has no header row and the positions are used directly.
type Layout struct {
	Names   ColumnNames
	Indices *ColumnIndices
}

// DefaultLayout locates columns by the default header names.
func DefaultLayout() Layout {
	return Layout{Names: DefaultColumnNames()}
}

// resolve finds column indices in a header row.
func (n ColumnNames) resolve(header []string) ColumnIndices {
	idx := ColumnIndices{-1, -1, -1, -1, -1, -1, -1, -1, -1}
	for i, col := range header {
		if col == "" {
			continue
		}
		setFirst(&idx.Chromosome, i, col, n.Chromosome)
		setFirst(&idx.Start, i, col, n.Start)
		setFirst(&idx.End, i, col, n.End)
		setFirst(&idx.Location, i, col, n.Location)
		setFirst(&idx.Feature, i, col, n.Feature)
		setFirst(&idx.Symbol, i, col, n.Symbol)
		setFirst(&idx.HGVSc, i, col, n.HGVSc)
		setFirst(&idx.Exon, i, col, n.Exon)
		setFirst(&idx.Intron, i, col, n.Intron)
	}
	return idx
}

// setFirst records i as the column for name unless an earlier column matched.
func setFirst(dst *int, i int, col, name string) {
	if col == name && *dst == -1 {
		*dst = i
	}
}

// hasRegion reports whether separate chromosome/start/end columns are present.
func (c ColumnIndices) hasRegion() bool {
	return c.Chromosome >= 0 && c.Start >= 0 && c.End >= 0
}

// validate checks that every required column is located and returns the
// name of the first missing one.
func (c ColumnIndices) validate(n ColumnNames) error {
	if !c.hasRegion() && c.Location < 0 {
		switch {
		case c.Chromosome < 0:
			return fmt.Errorf("required column %q (or %q) not found", n.Chromosome, n.Location)
		case c.Start < 0:
			return fmt.Errorf("required column %q (or %q) not found", n.Start, n.Location)
		default:
			return fmt.Errorf("required column %q (or %q) not found", n.End, n.Location)
		}
	}
	if c.Feature < 0 {
		return fmt.Errorf("required column %q not found", n.Feature)
	}
	if c.Symbol < 0 {
		return fmt.Errorf("required column %q not found", n.Symbol)
	}
	if c.HGVSc < 0 {
		return fmt.Errorf("required column %q not found", n.HGVSc)
	}
	return nil
}

// minFields is the number of fields a data row needs to carry every
// required column.
func (c ColumnIndices) minFields() int {
	m := max(c.Feature, c.Symbol, c.HGVSc)
	if c.hasRegion() {
		m = max(m, c.Chromosome, c.Start, c.End)
	} else {
		m = max(m, c.Location)
	}
	return m + 1
}
