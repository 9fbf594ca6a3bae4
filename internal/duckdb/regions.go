package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/bedanno/internal/vep"
)

// WriteIndex replaces the stored index with ix, recording the report it
// was built from. Records are appended in key first-seen order so that
// LoadIndex reproduces the per-key report order.
func (s *Store) WriteIndex(ix *vep.Index, source FileFingerprint) error {
	if err := s.Clear(); err != nil {
		return err
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "region_annotations")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	var seq int64
	for _, key := range ix.Keys() {
		for _, r := range ix.Lookup(key) {
			if err := appender.AppendRow(
				seq, key, r.Chrom, r.Start, r.End,
				r.Feature, r.Symbol, r.HGVSc, r.ExonNumber, r.IntronNumber,
			); err != nil {
				return fmt.Errorf("append region annotation: %w", err)
			}
			seq++
		}
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush region annotations: %w", err)
	}

	if _, err := s.db.Exec(`INSERT INTO index_source VALUES (?, ?, ?, ?)`,
		source.Path, source.Size, source.ModTime.UnixNano(), seq); err != nil {
		return fmt.Errorf("write index source: %w", err)
	}
	return nil
}

// Clear removes the stored index.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM region_annotations"); err != nil {
		return fmt.Errorf("clear region annotations: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM index_source"); err != nil {
		return fmt.Errorf("clear index source: %w", err)
	}
	return nil
}

// Source returns the fingerprint of the report the index was built from.
// ok is false when no index has been written.
func (s *Store) Source() (fp FileFingerprint, ok bool, err error) {
	var modNS int64
	err = s.db.QueryRow(`SELECT path, size, mod_time_ns FROM index_source LIMIT 1`).
		Scan(&fp.Path, &fp.Size, &modNS)
	if err == sql.ErrNoRows {
		return FileFingerprint{}, false, nil
	}
	if err != nil {
		return FileFingerprint{}, false, fmt.Errorf("query index source: %w", err)
	}
	fp.ModTime = time.Unix(0, modNS)
	return fp, true, nil
}

// LoadIndex reads the whole stored index into memory.
func (s *Store) LoadIndex() (*vep.Index, error) {
	rows, err := s.db.Query(`SELECT
		chrom, start_pos, end_pos, feature, symbol, hgvsc, exon_number, intron_number
		FROM region_annotations
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query region annotations: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	ix := vep.NewIndex()
	for _, r := range recs {
		ix.Add(r)
	}
	return ix, nil
}

// scanRecords scans region annotation rows into records.
func scanRecords(rows *sql.Rows) ([]vep.Record, error) {
	var recs []vep.Record
	for rows.Next() {
		var r vep.Record
		if err := rows.Scan(
			&r.Chrom, &r.Start, &r.End, &r.Feature, &r.Symbol,
			&r.HGVSc, &r.ExonNumber, &r.IntronNumber,
		); err != nil {
			return nil, fmt.Errorf("scan region annotation: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate region annotations: %w", err)
	}
	return recs, nil
}
