package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bedanno/internal/annotate"
	"github.com/inodb/bedanno/internal/bed"
	"github.com/inodb/bedanno/internal/duckdb"
	"github.com/inodb/bedanno/internal/fileio"
	"github.com/inodb/bedanno/internal/transcript"
	"github.com/inodb/bedanno/internal/vep"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bedanno <BedFile> <VepFile> [Transcripts]",
		Short: "Annotate BED intervals with transcript-level variant annotations",
		Long: `Annotate BED intervals with transcript-level annotations from a variant
effect predictor report.

Each interval whose chrom:start-end exactly matches a report region gets one
label per transcript appended to its name field, semicolon-separated:

  transcript:symbol:e<exon>|i<intron>:hgvsc

The HGVSc string is cut at the first "del". An optional transcript file
(tab-delimited, identifiers in column 2) restricts labels to those transcripts.
The report may also be a DuckDB index written by "bedanno index".

Output is written to <bed-basename>_Annotated.bed next to the input.`,
		Example: `  bedanno regions.bed vep_report.txt
  bedanno regions.bed vep_report.txt preferred_transcripts.tsv
  bedanno --exon-intron=false -o out.bed regions.bed vep_report.txt
  bedanno regions.bed report.duckdb`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 && len(args) != 3 {
				return &ArgumentError{Got: len(args)}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnnotate(args)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&a.cfgFile, "config", "", "Config file (default: ~/.bedanno.yaml)")
	pflags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pflags.Bool("strict", false, "Fail on malformed input lines instead of logging and skipping them")
	a.v.BindPFlag(keyStrict, pflags.Lookup("strict"))

	flags := cmd.Flags()
	flags.Bool("exon-intron", true, "Include the exon/intron tag in labels")
	flags.StringP("output", "o", "", "Output file (default: <bed-basename>_Annotated.bed)")
	flags.String("compression", fileio.CompressionNone, "Output compression: none, bgzf, lz4")
	a.v.BindPFlag(keyExonIntron, flags.Lookup("exon-intron"))
	a.v.BindPFlag(keyOutput, flags.Lookup("output"))
	a.v.BindPFlag(keyCompression, flags.Lookup("compression"))

	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

func (a *app) runAnnotate(args []string) error {
	opts, err := a.runOptions()
	if err != nil {
		return err
	}
	bedPath, reportPath := args[0], args[1]
	log := a.logger

	var allow *transcript.AllowList
	if len(args) == 3 {
		allow, err = transcript.Load(args[2], transcript.Options{Strict: opts.strict, Logger: log})
		if err != nil {
			if opts.strict {
				return err
			}
			log.Error("could not read transcript file", zap.String("path", args[2]), zap.Error(err))
		}
		log.Info("loaded preferred transcripts", zap.Int("count", allow.Len()))
		log.Debug("preferred transcript ids", zap.Strings("ids", allow.IDs()))
	}

	ix, err := a.loadIndex(reportPath, opts)
	if err != nil {
		return err
	}

	parser, err := bed.NewParser(bedPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	outPath := opts.output
	if outPath == "" {
		outPath = fileio.OutputPath(bedPath, opts.compression)
	}
	if bedPath != "-" && filepath.Clean(outPath) == filepath.Clean(bedPath) {
		return fmt.Errorf("output file %s would overwrite the input", outPath)
	}

	out, err := fileio.Create(outPath, opts.compression)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	ann := annotate.NewAnnotator(ix)
	ann.SetTranscriptFilter(allow)
	ann.SetExonIntron(opts.exonIntron)
	ann.SetStrict(opts.strict)
	ann.SetLogger(log)

	stats, runErr := ann.Run(parser, bed.NewWriter(out))
	if cerr := out.Close(); cerr != nil && runErr == nil {
		runErr = fmt.Errorf("close output file: %w", cerr)
	}
	if runErr != nil {
		return runErr
	}

	log.Info("annotation complete",
		zap.String("output", outPath),
		zap.Int("intervals", stats.Intervals),
		zap.Int("annotated", stats.Annotated),
		zap.Int("labels", stats.Labels),
		zap.Int("skipped", stats.Skipped))
	return nil
}

// isIndexFile reports whether path names a DuckDB index rather than a report.
func isIndexFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".duckdb" || ext == ".db"
}

// loadIndex builds the annotation index from a report, or loads it from a
// DuckDB index. An unopenable report, or one whose header lacks the
// required columns, is always fatal; other report errors are fatal only in
// strict mode.
func (a *app) loadIndex(path string, opts runOptions) (*vep.Index, error) {
	if isIndexFile(path) {
		return a.loadStoredIndex(path)
	}

	if path != "-" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open annotation report: %w", err)
		}
	}

	ix, err := vep.Build(path, a.buildOptions(opts))
	if err != nil {
		if opts.strict || isHeaderError(err) {
			return nil, err
		}
		a.logger.Error("could not read annotation report",
			zap.String("path", path),
			zap.Int("records_kept", ix.RecordCount()),
			zap.Error(err))
	}

	a.logger.Info("loaded annotations",
		zap.String("path", path),
		zap.Int("regions", ix.Len()),
		zap.Int("records", ix.RecordCount()))
	return ix, nil
}

// isHeaderError reports whether a report could not be read at all because
// its columns were not found.
func isHeaderError(err error) bool {
	var pe *vep.ParseError
	return errors.As(err, &pe) && pe.Header
}

func (a *app) loadStoredIndex(path string) (*vep.Index, error) {
	store, err := duckdb.OpenExisting(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if src, ok, err := store.Source(); err != nil {
		return nil, err
	} else if ok {
		if cur, err := duckdb.StatFile(src.Path); err == nil && !cur.SameContent(src) {
			a.logger.Warn("annotation report changed since the index was built",
				zap.String("index", path),
				zap.String("report", src.Path))
		}
	}

	ix, err := store.LoadIndex()
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded annotation index",
		zap.String("path", path),
		zap.Int("regions", ix.Len()),
		zap.Int("records", ix.RecordCount()))
	return ix, nil
}
