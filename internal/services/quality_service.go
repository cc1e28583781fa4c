package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"datasteward/internal/dataprocessing"
	apperrors "datasteward/internal/errors"
	"datasteward/internal/infrastructure"
	"datasteward/internal/quality"
	"datasteward/pkg/contracts/domain"
)

// DatasetLoader decodes an input spec into a dataset
type DatasetLoader interface {
	Load(ctx context.Context, spec domain.InputSpec) (*dataprocessing.Dataset, error)
}

// DatasetWriter persists a dataset and returns the absolute path written
type DatasetWriter interface {
	Save(ds *dataprocessing.Dataset, path string, fileType domain.FileType) (string, error)
}

// OutputLocator names the file a corrected dataset is written to
type OutputLocator interface {
	CleanFilePath(id, originalName string) string
}

// QualityService runs the detection and fix engine over request inputs.
// Every call loads its own dataset and builds its own engine, so calls
// share nothing but read-only settings.
type QualityService struct {
	loader   DatasetLoader
	writer   DatasetWriter
	output   OutputLocator
	settings quality.Settings
	metrics  *infrastructure.QualityMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
	newID    func() string
}

// NewQualityService creates a quality service. metrics may be nil.
func NewQualityService(
	loader DatasetLoader,
	writer DatasetWriter,
	output OutputLocator,
	settings quality.Settings,
	metrics *infrastructure.QualityMetrics,
	logger *slog.Logger,
) *QualityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QualityService{
		loader:   loader,
		writer:   writer,
		output:   output,
		settings: settings,
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.MeterName),
		logger:   logger.With(slog.String("service", "quality")),
		newID:    func() string { return uuid.New().String() },
	}
}

// Infer reports the inferred type of every column plus table KPIs
func (s *QualityService) Infer(ctx context.Context, spec domain.InputSpec) (result domain.InferResult, err error) {
	ctx, done := s.begin(ctx, "infer", spec)
	defer func() { done(err) }()

	engine, ds, err := s.prepare(ctx, spec)
	if err != nil {
		return domain.InferResult{}, err
	}

	result = engine.Infer(ctx, ds)
	s.logger.InfoContext(ctx, "columns inferred",
		slog.Int("cols", len(result.Columns)),
		slog.Int("warnings", len(result.Warnings)))
	return result, nil
}

// DetectIssues lists every issue with a summary
func (s *QualityService) DetectIssues(ctx context.Context, spec domain.InputSpec) (resp domain.DetectIssuesResponse, err error) {
	ctx, done := s.begin(ctx, "detect", spec)
	defer func() { done(err) }()

	engine, ds, err := s.prepare(ctx, spec)
	if err != nil {
		return domain.DetectIssuesResponse{}, err
	}

	resp = engine.DetectIssues(ctx, ds)
	s.metrics.RecordIssues(ctx, resp.Issues)
	s.logger.InfoContext(ctx, "issues detected",
		slog.Int("total_issues", resp.Summary.TotalIssues),
		slog.Int("affected_rows", resp.Summary.AffectedRows))
	return resp, nil
}

// PreviewFixes proposes corrections without modifying anything
func (s *QualityService) PreviewFixes(ctx context.Context, spec domain.InputSpec) (resp domain.PreviewFixesResponse, err error) {
	ctx, done := s.begin(ctx, "preview", spec)
	defer func() { done(err) }()

	engine, ds, err := s.prepare(ctx, spec)
	if err != nil {
		return domain.PreviewFixesResponse{}, err
	}

	resp = engine.Preview(ctx, ds)
	s.logger.InfoContext(ctx, "fixes previewed", slog.Int("previews", len(resp.Preview)))
	return resp, nil
}

// ApplyFixes corrects the dataset and writes it under a unique name in the
// clean output directory.
func (s *QualityService) ApplyFixes(ctx context.Context, spec domain.InputSpec) (result domain.FixResult, err error) {
	ctx, done := s.begin(ctx, "apply", spec)
	defer func() { done(err) }()

	engine, ds, err := s.prepare(ctx, spec)
	if err != nil {
		return domain.FixResult{}, err
	}

	clean, result := engine.Apply(ctx, ds)
	if err := ctx.Err(); err != nil {
		return domain.FixResult{}, err
	}

	if s.output == nil {
		return domain.FixResult{}, ErrNoOutputDir
	}
	target := s.output.CleanFilePath(s.newID(), outputBaseName(spec))
	path, err := s.writer.Save(clean, target, spec.FileType)
	if err != nil {
		return domain.FixResult{}, apperrors.NewStorageError("failed to write clean file", err)
	}
	result.FileCleanPath = path

	s.metrics.RecordFixes(ctx, result.Applied, result.Rejected)
	s.logger.InfoContext(ctx, "fixes applied",
		slog.Int("applied", result.Applied),
		slog.Int("rejected", result.Rejected),
		slog.Int("cells_harmonized", result.Summary.CellsHarmonized),
		slog.String("file_clean_path", path))
	return result, nil
}

// prepare loads the dataset and compiles the request's rules
func (s *QualityService) prepare(ctx context.Context, spec domain.InputSpec) (*quality.Engine, *dataprocessing.Dataset, error) {
	engine, err := quality.NewEngine(s.settings, spec.Rules, s.logger)
	if err != nil {
		return nil, nil, err
	}

	ds, err := s.loader.Load(ctx, spec)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.metrics.RecordRows(ctx, ds.Len())
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"dataset.rows": ds.Len(),
		"dataset.cols": ds.Width(),
	})
	return engine, ds, nil
}

// begin opens a span for one operation and returns its completion func
func (s *QualityService) begin(ctx context.Context, operation string, spec domain.InputSpec) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "quality."+operation,
		trace.WithAttributes(
			attribute.String("file_type", string(spec.FileType)),
			attribute.Bool("inline", spec.ContentB64 != ""),
			attribute.Int("rules", len(spec.Rules)),
		))
	start := time.Now()

	return ctx, func(err error) {
		duration := time.Since(start)
		s.metrics.RecordOperation(ctx, operation, duration, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.WarnContext(ctx, fmt.Sprintf("%s failed", operation),
				slog.String("error", err.Error()),
				slog.Duration("duration", duration),
				slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))
		}
		span.End()
	}
}

// outputBaseName is the input file name, or data.<type> for inline content
func outputBaseName(spec domain.InputSpec) string {
	if spec.FilePath != "" {
		return filepath.Base(spec.FilePath)
	}
	return "data." + string(spec.FileType)
}
