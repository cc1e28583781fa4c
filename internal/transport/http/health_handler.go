package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"datasteward/internal/services"
	"datasteward/pkg/contracts"
)

// HealthServiceInterface is the subset of the health service used by handlers
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() services.VersionInfo
}

// ServiceDescriptor is the payload of GET /
type ServiceDescriptor struct {
	Service    string   `json:"service"`
	Version    string   `json:"version"`
	APIVersion string   `json:"api_version"`
	Endpoints  []string `json:"endpoints"`
}

// Endpoints served by the application, listed by the root descriptor
var Endpoints = []string{
	"POST /infer",
	"POST /detect_issues",
	"POST /preview_fixes",
	"POST /apply_fixes",
	"GET /health",
	"GET /health/ready",
	"GET /health/live",
	"GET /version",
	"GET /metrics",
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthServiceInterface
	name    string
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler. name is reported by the
// root descriptor.
func NewHealthHandler(service HealthServiceInterface, name string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		name:    name,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ServiceDescriptor{
		Service:    h.name,
		Version:    h.service.Version().Version,
		APIVersion: contracts.APIVersion,
		Endpoints:  Endpoints,
	})
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.HealthCheck(r.Context()))
}

// ReadinessCheck handles GET /health/ready
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	if status.Status != "ready" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// LivenessCheck handles GET /health/live
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.LivenessCheck(r.Context()))
}

// Version handles GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
