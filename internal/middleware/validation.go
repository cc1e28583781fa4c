package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "datasteward/internal/errors"
	"datasteward/pkg/contracts/domain"
)

// ValidationMiddleware validates request payloads using struct tags
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateInputSpec, domain.InputSpec{})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// validateInputSpec checks constraints that span several fields
func validateInputSpec(sl validator.StructLevel) {
	spec := sl.Current().Interface().(domain.InputSpec)

	seen := make(map[string]bool, len(spec.Rules))
	for i, rule := range spec.Rules {
		if rule.ID == "" {
			continue
		}
		if seen[rule.ID] {
			sl.ReportError(spec.Rules[i].ID, fmt.Sprintf("rules[%d].id", i), "ID", "unique_rule_id", rule.ID)
		}
		seen[rule.ID] = true
	}

	for from, to := range spec.ColumnsMap {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			sl.ReportError(spec.ColumnsMap, "columns_map", "ColumnsMap", "non_empty_names", "")
			break
		}
	}
}

// ValidateStruct validates v and returns an *apierrors.APIError listing
// every failing field, or nil.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(details)
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ContentTypeValidator rejects bodies whose media type is not allowed
func (m *ValidationMiddleware) ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				m.errorHandler.HandleError(w, r, apierrors.ErrValidation("Content-Type", "header is required"))
				return
			}
			for _, allowed := range contentTypes {
				if strings.EqualFold(mediaType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.DebugContext(r.Context(), "unsupported content type", slog.String("content_type", mediaType))
			m.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				apierrors.CodeInvalidRequest,
				"Unsupported content type",
				map[string]interface{}{
					"content_type": mediaType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s is required when %s is not provided", field, snakeCase(param))
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", field, snakeCase(param))
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "unique_rule_id":
		return fmt.Sprintf("duplicate rule id %q", err.Value())
	case "non_empty_names":
		return "column names in columns_map must not be empty"
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// snakeCase maps a Go field name such as ContentB64 to content_b64
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
