package http

import (
	"context"

	"datasteward/pkg/contracts/domain"
)

// QualityServiceInterface defines the detection and fix operations
type QualityServiceInterface interface {
	Infer(ctx context.Context, spec domain.InputSpec) (domain.InferResult, error)
	DetectIssues(ctx context.Context, spec domain.InputSpec) (domain.DetectIssuesResponse, error)
	PreviewFixes(ctx context.Context, spec domain.InputSpec) (domain.PreviewFixesResponse, error)
	ApplyFixes(ctx context.Context, spec domain.InputSpec) (domain.FixResult, error)
}

// StructValidator validates decoded request bodies
type StructValidator interface {
	ValidateStruct(v interface{}) error
}
