// Package vep reads transcript-level annotation reports produced by a
// variant effect predictor and indexes them by genomic region.
package vep

// Record is one transcript-level row of an annotation report.
type Record struct {
	Chrom        string
	Start        string
	End          string
	Feature      string // transcript identifier
	Symbol       string // gene symbol
	HGVSc        string // HGVS coding notation
	ExonNumber   string // empty if not applicable
	IntronNumber string // empty if not applicable
}

// Key returns the region key the record is indexed under.
func (r Record) Key() string {
	return RegionKey(r.Chrom, r.Start, r.End)
}

// RegionKey formats the exact-match join key "chrom:start-end".
// Coordinates and chromosome names are not normalized.
func RegionKey(chrom, start, end string) string {
	return chrom + ":" + start + "-" + end
}
