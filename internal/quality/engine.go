package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

// Engine runs inference, detection and correction over a dataset. An Engine
// is built per request from the shared settings and the request's rules; it
// holds no mutable state and never modifies the dataset it is given.
type Engine struct {
	settings Settings
	registry *Registry
	inferrer *Inferrer
	logger   *slog.Logger
}

// NewEngine compiles rules on top of base settings. Invalid rules are
// reported as validation errors.
func NewEngine(base Settings, rules []domain.RuleSpec, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	settings, routes, err := compileRules(base, rules)
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.String("component", "quality_engine"))
	return &Engine{
		settings: settings,
		registry: NewRegistry(settings, routes, logger),
		inferrer: NewInferrer(settings),
		logger:   logger,
	}, nil
}

// Settings returns the effective settings after rule overrides
func (e *Engine) Settings() Settings {
	return e.settings.clone()
}

// Infer describes each column and the table as a whole
func (e *Engine) Infer(ctx context.Context, ds *dataprocessing.Dataset) domain.InferResult {
	start := time.Now()
	result := e.inferrer.Infer(ds)
	e.logger.DebugContext(ctx, "inference complete",
		slog.Int("rows", ds.Len()),
		slog.Int("cols", ds.Width()),
		slog.Duration("duration", time.Since(start)))
	return result
}

// Detect runs every routed detector and returns the issues in order
func (e *Engine) Detect(ctx context.Context, ds *dataprocessing.Dataset) []domain.Issue {
	issues := e.registry.Detect(ctx, ds)
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues
}

// DetectIssues runs detection and summarizes the result
func (e *Engine) DetectIssues(ctx context.Context, ds *dataprocessing.Dataset) domain.DetectIssuesResponse {
	issues := e.Detect(ctx, ds)
	summary := Summarize(issues, ds.Len())
	e.logger.InfoContext(ctx, "detection complete",
		slog.Int("total_issues", summary.TotalIssues),
		slog.Int("affected_rows", summary.AffectedRows))
	return domain.DetectIssuesResponse{Issues: issues, Summary: summary}
}

// Preview proposes corrections for up to PreviewMaxRows issues without
// touching the dataset.
func (e *Engine) Preview(ctx context.Context, ds *dataprocessing.Dataset) domain.PreviewFixesResponse {
	issues := e.Detect(ctx, ds)
	limit := e.settings.PreviewMaxRows
	if limit <= 0 {
		limit = DefaultSettings().PreviewMaxRows
	}

	preview := make([]domain.FixPreview, 0, min(limit, len(issues)))
	for _, issue := range issues {
		if len(preview) >= limit {
			break
		}
		if issue.Row == nil && issue.Col == nil {
			continue
		}

		current, hasValue := cellText(ds, issue)
		proposal := e.propose(issue, current, hasValue)

		entry := domain.FixPreview{
			Row:         issue.Row,
			Col:         issue.Col,
			RuleID:      ruleIDOf(issue),
			Explanation: proposal.explanation,
		}
		if hasValue {
			entry.Before = strPtr(current)
		}
		if proposal.ok {
			entry.After = strPtr(proposal.after)
		}
		preview = append(preview, entry)
	}

	resp := domain.PreviewFixesResponse{Preview: preview}
	if len(issues) > limit {
		resp.Note = strPtr(fmt.Sprintf("Preview limited to %d fixes. Total issues: %d", limit, len(issues)))
	}
	return resp
}

// Apply detects issues and corrects a copy of the dataset. The returned
// result has no output path; the caller persists the clean dataset.
func (e *Engine) Apply(ctx context.Context, ds *dataprocessing.Dataset) (*dataprocessing.Dataset, domain.FixResult) {
	issues := e.Detect(ctx, ds)
	clean := ds.Clone()

	applied := 0
	touchedDates := make(map[string]bool)
	for _, issue := range issues {
		current, hasValue := cellText(clean, issue)
		if !hasValue {
			continue
		}
		if issue.Kind == domain.IssueDateFormat {
			touchedDates[*issue.Col] = true
		}
		proposal := e.propose(issue, current, hasValue)
		if !proposal.ok || proposal.after == current {
			continue
		}
		if err := clean.Set(*issue.Row, *issue.Col, dataprocessing.TextCell(proposal.after)); err != nil {
			e.logger.WarnContext(ctx, "failed to apply fix",
				slog.String("kind", string(issue.Kind)),
				slog.Int("row", *issue.Row),
				slog.String("col", *issue.Col),
				slog.String("error", err.Error()))
			continue
		}
		applied++
	}

	harmonized := 0
	for _, column := range clean.Columns() {
		if touchedDates[column] {
			harmonized += e.harmonizeDates(clean, column)
		}
	}

	rows := make(map[int]struct{})
	for _, issue := range issues {
		if issue.Row != nil {
			rows[*issue.Row] = struct{}{}
		}
	}

	result := domain.FixResult{
		Applied:  applied,
		Rejected: len(issues) - applied,
		Summary: domain.FixSummary{
			TotalIssues:     len(issues),
			RowsAffected:    len(rows),
			OriginalRows:    ds.Len(),
			CleanRows:       clean.Len(),
			CellsHarmonized: harmonized,
		},
	}

	e.logger.InfoContext(ctx, "fixes applied",
		slog.Int("applied", result.Applied),
		slog.Int("rejected", result.Rejected),
		slog.Int("cells_harmonized", harmonized))
	return clean, result
}
