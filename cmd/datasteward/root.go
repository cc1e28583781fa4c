package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"datasteward/internal/config"
	"datasteward/internal/infrastructure"
	"datasteward/pkg/contracts"
	"datasteward/pkg/contracts/domain"
)

// options are the flags shared by every subcommand
type options struct {
	fileType    string
	delimiter   string
	encoding    string
	noHeader    bool
	rulesFile   string
	outDir      string
	concurrency int
	timeout     time.Duration
	logLevel    string
	pretty      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "datasteward",
		Short:         "Detect and fix data quality issues in CSV and XLSX files",
		Long:          `datasteward infers column types, reports data quality issues, previews corrections and writes cleaned copies of tabular files.`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate("{{.Version}}\n")

	f := root.PersistentFlags()
	f.StringVarP(&opts.fileType, "type", "t", "", "input type csv|xlsx (default from file extension)")
	f.StringVarP(&opts.delimiter, "delimiter", "d", config.DefaultDelimiter, "field delimiter for csv input")
	f.StringVarP(&opts.encoding, "encoding", "e", config.DefaultEncoding, "text encoding for csv input")
	f.BoolVar(&opts.noHeader, "no-header", false, "first row holds data, columns are named 0..n-1")
	f.StringVarP(&opts.rulesFile, "rules", "r", "", "YAML file with rule overrides")
	f.StringVarP(&opts.outDir, "out", "o", "", "directory for cleaned files (default <temp_dir>/clean)")
	f.IntVarP(&opts.concurrency, "concurrency", "j", config.DefaultCLIConcurrency, "files processed in parallel")
	f.DurationVar(&opts.timeout, "timeout", config.DefaultCLITimeout, "overall time limit")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	f.BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	for _, op := range []operation{opInfer, opDetect, opPreview, opApply} {
		root.AddCommand(newOperationCmd(op, opts))
	}
	return root
}

// newLogger builds the JSON stderr logger used by every subcommand
func newLogger(cmd *cobra.Command, opts *options) *slog.Logger {
	return infrastructure.NewLogger(config.LoggingConfig{
		Level:  opts.logLevel,
		Format: config.DefaultLogFormat,
		Output: "console",
	}, cmd.ErrOrStderr())
}

// inputSpec builds the request for one file
func (o *options) inputSpec(path string, rules []domain.RuleSpec) (domain.InputSpec, error) {
	fileType := strings.ToLower(strings.TrimSpace(o.fileType))
	if fileType == "" {
		fileType = typeFromExtension(path)
	}
	switch domain.FileType(fileType) {
	case domain.FileTypeCSV, domain.FileTypeXLSX:
	default:
		return domain.InputSpec{}, fmt.Errorf("unsupported --type %q (use csv|xlsx)", o.fileType)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.InputSpec{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	spec := domain.InputSpec{
		FilePath:  abs,
		FileType:  domain.FileType(fileType),
		Delimiter: o.delimiter,
		Encoding:  o.encoding,
		Rules:     rules,
	}
	if o.noHeader {
		header := false
		spec.Header = &header
	}
	return spec, nil
}

func typeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return string(domain.FileTypeXLSX)
	default:
		return string(domain.FileTypeCSV)
	}
}

// loadRules reads rule overrides from a YAML list, or returns nil
func loadRules(path string) ([]domain.RuleSpec, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules []domain.RuleSpec
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	for i, rule := range rules {
		if rule.ID == "" || rule.Kind == "" {
			return nil, fmt.Errorf("rule %d in %s: id and kind are required", i, path)
		}
	}
	return rules, nil
}
