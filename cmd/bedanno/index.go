package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bedanno/internal/duckdb"
	"github.com/inodb/bedanno/internal/vep"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index <VepFile> <index.duckdb>",
		Short: "Parse an annotation report into a reusable DuckDB index",
		Long: `Parse an annotation report once and store the region index in DuckDB.
The index file can then be passed to bedanno in place of the report.`,
		Example: `  bedanno index vep_report.txt report.duckdb
  bedanno regions.bed report.duckdb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(args[0], args[1])
		},
	}
}

func (a *app) runIndex(reportPath, dbPath string) error {
	if !isIndexFile(dbPath) {
		return fmt.Errorf("index file %s must end in .duckdb or .db", dbPath)
	}

	layout, err := a.reportLayout()
	if err != nil {
		return err
	}
	opts := runOptions{strict: a.v.GetBool(keyStrict), layout: layout}

	fp, err := duckdb.StatFile(reportPath)
	if err != nil {
		return fmt.Errorf("open annotation report: %w", err)
	}

	ix, err := vep.Build(reportPath, a.buildOptions(opts))
	if err != nil {
		if opts.strict || isHeaderError(err) {
			return err
		}
		a.logger.Error("could not read annotation report",
			zap.String("path", reportPath),
			zap.Int("records_kept", ix.RecordCount()),
			zap.Error(err))
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteIndex(ix, fp); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	a.logger.Info("index written",
		zap.String("path", dbPath),
		zap.Int("regions", ix.Len()),
		zap.Int("records", ix.RecordCount()))
	return nil
}
