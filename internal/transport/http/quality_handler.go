package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "datasteward/internal/errors"
	"datasteward/pkg/contracts/domain"
)

// QualityHandler exposes the detection and fix engine over HTTP
type QualityHandler struct {
	service      QualityServiceInterface
	validator    StructValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQualityHandler creates a new quality handler
func NewQualityHandler(service QualityServiceInterface, validator StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QualityHandler {
	return &QualityHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "quality_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns a router serving the four engine operations
func (h *QualityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	h.Register(r)
	return r
}

// Register adds the engine operations to an existing router
func (h *QualityHandler) Register(r chi.Router) {
	r.Post("/infer", h.Infer)
	r.Post("/detect_issues", h.DetectIssues)
	r.Post("/preview_fixes", h.PreviewFixes)
	r.Post("/apply_fixes", h.ApplyFixes)
}

// Infer handles POST /infer
func (h *QualityHandler) Infer(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.Infer(r.Context(), spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// DetectIssues handles POST /detect_issues
func (h *QualityHandler) DetectIssues(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decode(w, r)
	if !ok {
		return
	}
	resp, err := h.service.DetectIssues(r.Context(), spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// PreviewFixes handles POST /preview_fixes
func (h *QualityHandler) PreviewFixes(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decode(w, r)
	if !ok {
		return
	}
	resp, err := h.service.PreviewFixes(r.Context(), spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// ApplyFixes handles POST /apply_fixes
func (h *QualityHandler) ApplyFixes(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.ApplyFixes(r.Context(), spec)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// decode reads and validates the request body. On failure the error
// response has already been written.
func (h *QualityHandler) decode(w http.ResponseWriter, r *http.Request) (domain.InputSpec, bool) {
	var spec domain.InputSpec
	if err := render.DecodeJSON(r.Body, &spec); err != nil {
		var maxBytes *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytes):
			h.errorHandler.HandleError(w, r, err)
		case errors.Is(err, io.EOF):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", "request body is required"))
		default:
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		}
		return spec, false
	}

	if err := h.validator.ValidateStruct(spec); err != nil {
		h.logger.DebugContext(r.Context(), "request rejected by validation",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return spec, false
	}
	return spec, true
}
