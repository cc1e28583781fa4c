package services

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"datasteward/internal/config"
	"datasteward/internal/dataprocessing"
	apperrors "datasteward/internal/errors"
	"datasteward/internal/exporter"
	"datasteward/internal/quality"
	"datasteward/internal/shared/testutil"
	"datasteward/pkg/contracts/domain"
)

// MockLoader is a mock implementation of DatasetLoader
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, spec domain.InputSpec) (*dataprocessing.Dataset, error) {
	args := m.Called(spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dataprocessing.Dataset), args.Error(1)
}

// MockWriter is a mock implementation of DatasetWriter
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Save(ds *dataprocessing.Dataset, path string, fileType domain.FileType) (string, error) {
	args := m.Called(ds, path, fileType)
	return args.String(0), args.Error(1)
}

type fixedLocator struct{ dir string }

func (l fixedLocator) CleanFilePath(id, originalName string) string {
	return filepath.Join(l.dir, id+"_clean_"+originalName)
}

func contactsDataset(t *testing.T) *dataprocessing.Dataset {
	t.Helper()
	ds, err := dataprocessing.NewDataset(
		[]string{"email", "nombre"},
		[][]dataprocessing.Cell{
			{dataprocessing.TextCell("juan@x.com"), dataprocessing.TextCell("Juan")},
			{dataprocessing.TextCell("bad-email"), dataprocessing.TextCell("Ana")},
		},
	)
	require.NoError(t, err)
	return ds
}

func newTestService(t *testing.T, loader DatasetLoader, writer DatasetWriter) *QualityService {
	t.Helper()
	svc := NewQualityService(loader, writer, fixedLocator{dir: "/out"}, quality.DefaultSettings(), nil, testutil.Logger(t))
	svc.newID = func() string { return "fixed-id" }
	return svc
}

func inlineSpec(fileType domain.FileType) domain.InputSpec {
	return domain.InputSpec{ContentB64: "ZW1haWwK", FileType: fileType}
}

func TestQualityService_DetectIssues(t *testing.T) {
	loader := new(MockLoader)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(contactsDataset(t), nil)

	svc := newTestService(t, loader, new(MockWriter))
	resp, err := svc.DetectIssues(context.Background(), spec)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Summary.ByKind[string(domain.IssueEmailInvalid)])
	assert.Equal(t, 2, resp.Summary.TotalRows)
	loader.AssertExpectations(t)
}

func TestQualityService_LoaderErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
	}{
		{
			name:     "parse error propagates",
			err:      apperrors.NewParsingError("invalid base64 content", nil),
			wantType: apperrors.ErrTypeParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(MockLoader)
			spec := inlineSpec(domain.FileTypeCSV)
			loader.On("Load", spec).Return(nil, tt.err)

			svc := newTestService(t, loader, new(MockWriter))

			_, err := svc.Infer(context.Background(), spec)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))

			_, err = svc.PreviewFixes(context.Background(), spec)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))
		})
	}
}

func TestQualityService_InvalidRuleSkipsLoad(t *testing.T) {
	loader := new(MockLoader)
	spec := inlineSpec(domain.FileTypeCSV)
	spec.Rules = []domain.RuleSpec{{ID: "r1", Kind: domain.RuleRegex, Spec: map[string]any{"pattern": "["}}}

	svc := newTestService(t, loader, new(MockWriter))
	_, err := svc.DetectIssues(context.Background(), spec)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	loader.AssertNotCalled(t, "Load", mock.Anything)
}

func TestQualityService_ApplyFixes(t *testing.T) {
	loader := new(MockLoader)
	writer := new(MockWriter)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(contactsDataset(t), nil)
	writer.On("Save", mock.AnythingOfType("*dataprocessing.Dataset"), "/out/fixed-id_clean_data.csv", domain.FileTypeCSV).
		Return("/abs/out/fixed-id_clean_data.csv", nil)

	svc := newTestService(t, loader, writer)
	result, err := svc.ApplyFixes(context.Background(), spec)

	require.NoError(t, err)
	assert.Equal(t, "/abs/out/fixed-id_clean_data.csv", result.FileCleanPath)
	assert.Equal(t, 2, result.Summary.OriginalRows)
	assert.Equal(t, result.Summary.TotalIssues-result.Applied, result.Rejected)
	writer.AssertExpectations(t)
}

func TestQualityService_ApplyFixesKeepsInputName(t *testing.T) {
	loader := new(MockLoader)
	writer := new(MockWriter)
	spec := domain.InputSpec{FilePath: "/data/in/clientes.xlsx", FileType: domain.FileTypeXLSX}
	loader.On("Load", spec).Return(contactsDataset(t), nil)
	writer.On("Save", mock.Anything, "/out/fixed-id_clean_clientes.xlsx", domain.FileTypeXLSX).
		Return("/out/fixed-id_clean_clientes.xlsx", nil)

	svc := newTestService(t, loader, writer)
	_, err := svc.ApplyFixes(context.Background(), spec)

	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestQualityService_ApplyFixesSaveFailure(t *testing.T) {
	loader := new(MockLoader)
	writer := new(MockWriter)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(contactsDataset(t), nil)
	writer.On("Save", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	svc := newTestService(t, loader, writer)
	_, err := svc.ApplyFixes(context.Background(), spec)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Contains(t, err.Error(), "disk full")
}

func TestQualityService_ApplyFixesWithoutOutput(t *testing.T) {
	loader := new(MockLoader)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(contactsDataset(t), nil)

	svc := NewQualityService(loader, new(MockWriter), nil, quality.DefaultSettings(), nil, testutil.Logger(t))
	_, err := svc.ApplyFixes(context.Background(), spec)

	assert.ErrorIs(t, err, ErrNoOutputDir)
}

func TestQualityService_CancelledContext(t *testing.T) {
	loader := new(MockLoader)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(contactsDataset(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(t, loader, new(MockWriter))
	_, err := svc.DetectIssues(ctx, spec)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestQualityService_LogsFailures(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	loader := new(MockLoader)
	spec := inlineSpec(domain.FileTypeCSV)
	loader.On("Load", spec).Return(nil, apperrors.NewParsingError("unsupported encoding: klingon", nil))

	svc := NewQualityService(loader, new(MockWriter), fixedLocator{}, quality.DefaultSettings(), nil, logger)
	_, err := svc.Infer(context.Background(), spec)

	require.Error(t, err)
	assert.True(t, handler.ContainsMessage("infer failed"))
}

func TestQualityService_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.TempDir = t.TempDir()
	paths, err := cfg.GetPaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger := testutil.Logger(t)
	svc := NewQualityService(
		dataprocessing.NewLoader(logger),
		exporter.NewDatasetExporter(logger),
		paths,
		cfg.QualitySettings(),
		nil,
		logger,
	)

	csvData := "email,fecha_alta\n  juan@x.com ,2024-01-15\nana@x.com,15/02/2024\n"
	spec := domain.InputSpec{
		ContentB64: base64.StdEncoding.EncodeToString([]byte(csvData)),
		FileType:   domain.FileTypeCSV,
	}

	inferred, err := svc.Infer(context.Background(), spec)
	require.NoError(t, err)
	require.Len(t, inferred.Columns, 2)
	assert.Equal(t, "email", inferred.Columns[0].Name)
	assert.Equal(t, "fecha_alta", inferred.Columns[1].Name)

	result, err := svc.ApplyFixes(context.Background(), spec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.FileCleanPath, paths.CleanDir))
	assert.True(t, strings.HasSuffix(result.FileCleanPath, "_clean_data.csv"))

	written, err := os.ReadFile(result.FileCleanPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "2024-02-15")
}
