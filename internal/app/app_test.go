package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasteward/internal/config"
	"datasteward/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.TempDir = filepath.Join(dir, "tmp")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	a, err := New(cfg, testutil.Logger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func do(a *Application, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func inlineBody(csv string) string {
	return `{"content_b64":"` + base64.StdEncoding.EncodeToString([]byte(csv)) + `","file_type":"csv"}`
}

func TestNew_CreatesDirectories(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	for _, dir := range []string{a.Paths.TempDir, a.Paths.CleanDir, a.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, cfg.Address(), a.Server.Addr)
}

func TestRouter_Probes(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/", http.StatusOK},
		{"/health", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/health/live", http.StatusOK},
		{"/version", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(a, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_DetectIssues(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := do(a, http.MethodPost, "/detect_issues", inlineBody("email,telefono\njuan@x.com,612345678\nbad-email,12\n"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	summary := body["summary"].(map[string]interface{})
	byKind := summary["by_kind"].(map[string]interface{})
	assert.Equal(t, float64(1), byKind["email_invalid"])
	assert.Equal(t, float64(2), byKind["phone_invalid"])
	assert.Equal(t, float64(2), summary["total_rows"])
}

func TestRouter_ApplyFixesWritesCleanFile(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	rec := do(a, http.MethodPost, "/apply_fixes", inlineBody("telefono\n612345678\n"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	path := decode(t, rec)["file_clean_path"].(string)
	assert.Equal(t, a.Paths.CleanDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_clean_data.csv"))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "+34612345678")
}

func TestRouter_ErrorMapping(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "bad base64",
			method:   http.MethodPost,
			path:     "/infer",
			body:     `{"content_b64":"!!!","file_type":"csv"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "PARSE_ERROR",
		},
		{
			name:     "missing file",
			method:   http.MethodPost,
			path:     "/infer",
			body:     `{"file_path":"/does/not/exist.csv","file_type":"csv"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "PARSE_ERROR",
		},
		{
			name:     "missing source",
			method:   http.MethodPost,
			path:     "/preview_fixes",
			body:     `{"file_type":"csv"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "bad rule",
			method:   http.MethodPost,
			path:     "/detect_issues",
			body:     `{"content_b64":"YQo=","file_type":"csv","rules":[{"id":"r1","kind":"regex","spec":{"column":"a"}}]}`,
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_FAILED",
		},
		{
			name:     "wrong method",
			method:   http.MethodGet,
			path:     "/apply_fixes",
			wantCode: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(a, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			body := decode(t, rec)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error_code"])
			}
			assert.Equal(t, rec.Header().Get("X-Request-ID"), body["trace_id"])
		})
	}
}

func TestRouter_RejectsNonJSON(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/infer", strings.NewReader("email\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_BodyLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.MaxBodyBytes = 32
	a := newTestApp(t, cfg)

	rec := do(a, http.MethodPost, "/infer", inlineBody(strings.Repeat("a,b\n", 20)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 0.001
	cfg.Security.RateLimit.Burst = 1
	a := newTestApp(t, cfg)

	body := `{"file_type":"csv"}`
	assert.Equal(t, http.StatusBadRequest, do(a, http.MethodPost, "/infer", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(a, http.MethodPost, "/infer", body).Code)

	// Probes are not rate limited
	assert.Equal(t, http.StatusOK, do(a, http.MethodGet, "/health", "").Code)
}

func TestRouter_MetricsExposeOperations(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	require.Equal(t, http.StatusOK, do(a, http.MethodPost, "/detect_issues", inlineBody("email\nbad\n")).Code)

	rec := do(a, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "datasteward_issues_detected_total")
	assert.Contains(t, rec.Body.String(), "datasteward_operation_duration_seconds")
}

func TestRunContext_GracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Host = "127.0.0.1"
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	cfg.Server.Port = listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunContext(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Address() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
