package annotate

import (
	"strings"

	"github.com/inodb/bedanno/internal/vep"
)

// deletionMarker truncates HGVS coding notation in labels.
const deletionMarker = "del"

// ExonIntronTag returns "e<exon>" or, failing that, "i<intron>"; empty
// when the record has neither.
func ExonIntronTag(r vep.Record) string {
	switch {
	case r.ExonNumber != "":
		return "e" + r.ExonNumber
	case r.IntronNumber != "":
		return "i" + r.IntronNumber
	default:
		return ""
	}
}

// HGVSPrefix returns the part of an HGVS coding string before the first
// "del", so "c.123delAT" becomes "c.123". Strings without a deletion
// marker are returned unchanged.
func HGVSPrefix(hgvsc string) string {
	if i := strings.Index(hgvsc, deletionMarker); i >= 0 {
		return hgvsc[:i]
	}
	return hgvsc
}

// FormatLabel formats a record as "transcript:symbol:tag:hgvs", or
// "transcript:symbol:hgvs" without the exon/intron tag.
func FormatLabel(r vep.Record, includeExonIntron bool) string {
	var b strings.Builder
	b.WriteString(r.Feature)
	b.WriteByte(':')
	b.WriteString(r.Symbol)
	b.WriteByte(':')
	if includeExonIntron {
		b.WriteString(ExonIntronTag(r))
		b.WriteByte(':')
	}
	b.WriteString(HGVSPrefix(r.HGVSc))
	return b.String()
}

// JoinName composes the output name field: the original name, if any,
// followed by labels, separated by semicolons.
func JoinName(name string, labels []string) string {
	if len(labels) == 0 {
		return name
	}
	joined := strings.Join(labels, ";")
	if name == "" {
		return joined
	}
	return name + ";" + joined
}
