package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"datasteward/internal/config"
	"datasteward/internal/dataprocessing"
	"datasteward/internal/exporter"
	"datasteward/internal/files"
	"datasteward/internal/infrastructure"
	"datasteward/internal/services"
	"datasteward/pkg/contracts/domain"
)

// operation is one engine entry point exposed as a subcommand
type operation struct {
	name  string
	short string
	run   func(ctx context.Context, svc *services.QualityService, spec domain.InputSpec) (any, error)
}

var (
	opInfer = operation{
		name:  "infer",
		short: "Infer column types and table KPIs",
		run: func(ctx context.Context, svc *services.QualityService, spec domain.InputSpec) (any, error) {
			return svc.Infer(ctx, spec)
		},
	}
	opDetect = operation{
		name:  "detect",
		short: "List data quality issues",
		run: func(ctx context.Context, svc *services.QualityService, spec domain.InputSpec) (any, error) {
			return svc.DetectIssues(ctx, spec)
		},
	}
	opPreview = operation{
		name:  "preview",
		short: "Show proposed corrections without writing anything",
		run: func(ctx context.Context, svc *services.QualityService, spec domain.InputSpec) (any, error) {
			return svc.PreviewFixes(ctx, spec)
		},
	}
	opApply = operation{
		name:  "apply",
		short: "Write a corrected copy of each file",
		run: func(ctx context.Context, svc *services.QualityService, spec domain.InputSpec) (any, error) {
			return svc.ApplyFixes(ctx, spec)
		},
	}
)

// fileResult is the JSON record printed for each input file
type fileResult struct {
	File   string `json:"file"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newOperationCmd(op operation, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   op.name + " <files...>",
		Short: op.short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, op, opts, args)
		},
	}
}

func runOperation(cmd *cobra.Command, op operation, opts *options, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inputs, err := files.NewDiscovery("").Expand(args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, opts)

	rules, err := loadRules(opts.rulesFile)
	if err != nil {
		return err
	}

	svc, err := newService(cfg, opts, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(infrastructure.EnsureTraceID(cmd.Context()), opts.timeout)
	defer cancel()

	results := make([]fileResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, input := range inputs {
		g.Go(func() error {
			results[i] = processFile(gctx, op, svc, opts, input.Path, rules, logger)
			return nil
		})
	}
	_ = g.Wait()

	if err := writeResults(cmd.OutOrStdout(), results, opts.pretty); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

// newService wires a quality service writing cleaned files to --out or the
// configured clean directory.
func newService(cfg *config.Config, opts *options, logger *slog.Logger) (*services.QualityService, error) {
	paths, err := cfg.GetPaths()
	if err != nil {
		return nil, err
	}
	if opts.outDir != "" {
		paths.CleanDir = opts.outDir
	}
	if err := os.MkdirAll(paths.CleanDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return services.NewQualityService(
		dataprocessing.NewLoader(logger),
		exporter.NewDatasetExporter(logger),
		paths,
		cfg.QualitySettings(),
		nil,
		logger,
	), nil
}

func processFile(ctx context.Context, op operation, svc *services.QualityService, opts *options, file string, rules []domain.RuleSpec, logger *slog.Logger) fileResult {
	res := fileResult{File: file}

	spec, err := opts.inputSpec(file, rules)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := op.run(ctx, svc, spec)
	if err != nil {
		logger.WarnContext(ctx, "file failed",
			slog.String("operation", op.name),
			slog.String("file", file),
			slog.String("error", err.Error()))
		res.Error = err.Error()
		return res
	}
	res.Result = out
	return res
}

// writeResults prints one object for a single file and an array otherwise
func writeResults(w io.Writer, results []fileResult, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}
