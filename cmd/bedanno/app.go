package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/bedanno/internal/fileio"
	"github.com/inodb/bedanno/internal/vep"
)

// Configuration keys.
const (
	keyExonIntron  = "exon_intron"
	keyStrict      = "strict"
	keyOutput      = "output"
	keyCompression = "compression"
	keyHeaderless  = "report.headerless"
	keyColumns     = "report.columns"
	keyIndices     = "report.indices"
)

const configName = ".bedanno"

// app carries state shared by all commands of one invocation.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	verbose bool
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("BEDANNO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &app{
		v:      v,
		logger: zap.NewNop(),
		stdout: stdout,
		stderr: stderr,
	}
}

// setup loads the config file and builds the logger. It runs before every
// command.
func (a *app) setup() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(home)
		}
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.logger = newLogger(a.stderr, a.verbose)
	return nil
}

func (a *app) sync() {
	_ = a.logger.Sync()
}

// newLogger builds a console logger without timestamps.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// defaultConfigPath returns ~/.bedanno.yaml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// runOptions is the resolved configuration for an annotation run.
type runOptions struct {
	exonIntron  bool
	strict      bool
	output      string
	compression string
	layout      vep.Layout
}

func (a *app) runOptions() (runOptions, error) {
	opts := runOptions{
		exonIntron:  a.v.GetBool(keyExonIntron),
		strict:      a.v.GetBool(keyStrict),
		output:      a.v.GetString(keyOutput),
		compression: a.v.GetString(keyCompression),
	}
	if !fileio.ValidCompression(opts.compression) {
		return opts, fmt.Errorf("unknown compression %q (want none, bgzf or lz4)", opts.compression)
	}

	layout, err := a.reportLayout()
	if err != nil {
		return opts, err
	}
	opts.layout = layout
	return opts, nil
}

// reportLayout resolves column names, or fixed positions for headerless
// reports, from configuration. Each field is read by its own key so that
// environment overrides such as BEDANNO_REPORT_COLUMNS_SYMBOL apply.
func (a *app) reportLayout() (vep.Layout, error) {
	layout := vep.DefaultLayout()
	n := &layout.Names
	for field, dst := range map[string]*string{
		"chromosome": &n.Chromosome,
		"start":      &n.Start,
		"end":        &n.End,
		"location":   &n.Location,
		"feature":    &n.Feature,
		"symbol":     &n.Symbol,
		"hgvsc":      &n.HGVSc,
		"exon":       &n.Exon,
		"intron":     &n.Intron,
	} {
		if key := keyColumns + "." + field; a.v.IsSet(key) {
			*dst = a.v.GetString(key)
		}
	}

	if !a.v.GetBool(keyHeaderless) {
		return layout, nil
	}
	idx := vep.DefaultColumnIndices()
	for field, dst := range map[string]*int{
		"chromosome": &idx.Chromosome,
		"start":      &idx.Start,
		"end":        &idx.End,
		"location":   &idx.Location,
		"feature":    &idx.Feature,
		"symbol":     &idx.Symbol,
		"hgvsc":      &idx.HGVSc,
		"exon":       &idx.Exon,
		"intron":     &idx.Intron,
	} {
		key := keyIndices + "." + field
		if !a.v.IsSet(key) {
			continue
		}
		pos, err := cast.ToIntE(a.v.Get(key))
		if err != nil {
			return layout, fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = pos
	}
	layout.Indices = &idx
	return layout, nil
}

func (a *app) buildOptions(opts runOptions) vep.BuildOptions {
	return vep.BuildOptions{
		Layout: opts.layout,
		Strict: opts.strict,
		Logger: a.logger,
	}
}
