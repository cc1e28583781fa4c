package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "datasteward/internal/errors"
	"datasteward/internal/shared/testutil"
	"datasteward/pkg/contracts/domain"
)

func newValidation(t *testing.T) *ValidationMiddleware {
	logger := testutil.Logger(t)
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false))
}

func TestValidateStruct_InputSpec(t *testing.T) {
	tests := []struct {
		name       string
		spec       domain.InputSpec
		wantFields []string
	}{
		{
			name: "valid path",
			spec: domain.InputSpec{FilePath: "/data/in.csv", FileType: domain.FileTypeCSV},
		},
		{
			name: "valid inline with rules",
			spec: domain.InputSpec{
				ContentB64: "aWQK",
				FileType:   domain.FileTypeXLSX,
				Delimiter:  ";",
				Rules:      []domain.RuleSpec{{ID: "r1", Kind: domain.RuleRequired}},
			},
		},
		{
			name:       "neither source",
			spec:       domain.InputSpec{FileType: domain.FileTypeCSV},
			wantFields: []string{"file_path", "content_b64"},
		},
		{
			name:       "both sources",
			spec:       domain.InputSpec{FilePath: "a.csv", ContentB64: "aWQK", FileType: domain.FileTypeCSV},
			wantFields: []string{"file_path", "content_b64"},
		},
		{
			name:       "bad file type",
			spec:       domain.InputSpec{FilePath: "a.json", FileType: "json"},
			wantFields: []string{"file_type"},
		},
		{
			name:       "multi char delimiter",
			spec:       domain.InputSpec{FilePath: "a.csv", FileType: domain.FileTypeCSV, Delimiter: ";;"},
			wantFields: []string{"delimiter"},
		},
		{
			name: "rule without id and unknown kind",
			spec: domain.InputSpec{
				FilePath: "a.csv", FileType: domain.FileTypeCSV,
				Rules: []domain.RuleSpec{{Kind: "telepathy"}},
			},
			wantFields: []string{"rules[0].id", "rules[0].kind"},
		},
		{
			name: "duplicate rule ids",
			spec: domain.InputSpec{
				FilePath: "a.csv", FileType: domain.FileTypeCSV,
				Rules: []domain.RuleSpec{{ID: "r1", Kind: domain.RuleEmail}, {ID: "r1", Kind: domain.RuleDate}},
			},
			wantFields: []string{"rules[1].id"},
		},
		{
			name: "empty mapped column name",
			spec: domain.InputSpec{
				FilePath: "a.csv", FileType: domain.FileTypeCSV,
				ColumnsMap: map[string]string{"Nombre": " "},
			},
			wantFields: []string{"columns_map"},
		},
	}

	v := newValidation(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.spec)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, apierrors.CodeValidationFailed, apiErr.ErrorCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
				assert.NotEmpty(t, e.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestFormatValidationError_Messages(t *testing.T) {
	v := newValidation(t)
	err := v.ValidateStruct(domain.InputSpec{FilePath: "a.csv", ContentB64: "aWQK", FileType: domain.FileTypeCSV})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	msgs := map[string]string{}
	for _, e := range apiErr.Details.(apierrors.ValidationErrors).Errors {
		msgs[e.Field] = e.Message
	}
	assert.Equal(t, "file_path cannot be combined with content_b64", msgs["file_path"])
}

func TestContentTypeValidator(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"form", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"get ignored", http.MethodGet, "", http.StatusOK},
	}
	h := newValidation(t).ContentTypeValidator("application/json")(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/infer", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
