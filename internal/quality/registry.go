package quality

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"datasteward/internal/dataprocessing"
	"datasteward/pkg/contracts/domain"
)

// columnRoute maps column-name keywords to the detectors they enable
type columnRoute struct {
	keywords []string
	build    func(s Settings) []Detector
}

var columnRoutes = []columnRoute{
	{
		keywords: []string{"email", "mail", "correo"},
		build:    func(Settings) []Detector { return []Detector{EmailDetector{}} },
	},
	{
		keywords: []string{"phone", "telefono", "tel", "móvil", "movil"},
		build: func(s Settings) []Detector {
			return []Detector{PhoneDetector{CountryCode: s.CountryCode, Length: s.PhoneLength}}
		},
	},
	{
		keywords: []string{"fecha", "date", "born"},
		build:    func(Settings) []Detector { return []Detector{DateDetector{}} },
	},
	{
		keywords: []string{"precio", "price", "cost", "amount"},
		build:    func(Settings) []Detector { return []Detector{CurrencyDetector{}, PriceDetector{}} },
	},
	{
		keywords: []string{"id", "sku", "code", "codigo"},
		build:    func(Settings) []Detector { return []Detector{IDDetector{}} },
	},
	{
		keywords: []string{"nif", "cif", "dni"},
		build:    func(Settings) []Detector { return []Detector{NIFDetector{}} },
	},
}

// Registry runs the routed detectors over a dataset. A detector that panics
// is treated as having produced no issues.
type Registry struct {
	settings Settings
	routes   []routedDetector
	table    []TableDetector
	logger   *slog.Logger
}

// NewRegistry builds a registry for one request
func NewRegistry(settings Settings, routes []routedDetector, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		settings: settings,
		routes:   routes,
		table: []TableDetector{
			DuplicateMatcher{KeyColumns: settings.DupKeyColumns, Threshold: settings.DupThreshold},
		},
		logger: logger,
	}
}

// DetectorsFor returns the detectors routed to a column, name-routed first
func (r *Registry) DetectorsFor(column string) []Detector {
	lower := strings.ToLower(column)
	var out []Detector
	names := make(map[string]bool)
	for _, route := range columnRoutes {
		for _, kw := range route.keywords {
			if strings.Contains(lower, kw) {
				for _, d := range route.build(r.settings) {
					out = append(out, d)
					names[d.Name()] = true
				}
				break
			}
		}
	}
	for _, rd := range r.routes {
		if rd.column != lower {
			continue
		}
		if names[rd.detector.Name()] {
			continue
		}
		out = append(out, rd.detector)
		names[rd.detector.Name()] = true
	}
	return out
}

// Detect runs every column detector in column order, then the table
// detectors.
func (r *Registry) Detect(ctx context.Context, ds *dataprocessing.Dataset) []domain.Issue {
	var issues []domain.Issue
	for _, column := range ds.Columns() {
		for _, d := range r.DetectorsFor(column) {
			issues = append(issues, r.runColumn(ctx, d, ds, column)...)
		}
	}
	for _, d := range r.table {
		issues = append(issues, r.runTable(ctx, d, ds)...)
	}
	return issues
}

func (r *Registry) runColumn(ctx context.Context, d Detector, ds *dataprocessing.Dataset, column string) (issues []domain.Issue) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "detector panicked",
				slog.String("detector", d.Name()),
				slog.String("column", column),
				slog.String("panic", fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())))
			issues = nil
		}
	}()
	return d.Detect(ds, column)
}

func (r *Registry) runTable(ctx context.Context, d TableDetector, ds *dataprocessing.Dataset) (issues []domain.Issue) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "table detector panicked",
				slog.String("detector", d.Name()),
				slog.String("panic", fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())))
			issues = nil
		}
	}()
	return d.DetectTable(ds)
}
