// Package services implements the business logic layer between the HTTP
// and CLI front ends and the quality engine.
//
// QualityService owns the request lifecycle: load the dataset described by
// an InputSpec, build a quality.Engine from the configured settings and the
// request's rules, run one operation, and for apply persist the corrected
// dataset. Dependencies are injected as small interfaces so tests can
// substitute mocks:
//
//	svc := services.NewQualityService(loader, exporter, paths, cfg.QualitySettings(), metrics, logger)
//	resp, err := svc.DetectIssues(ctx, spec)
//
// Errors are returned unchanged from the loader (parsing AppErrors) and the
// engine (validation AppErrors); storage failures are wrapped as storage
// AppErrors. The HTTP layer maps them to problem documents.
package services
