package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "readable file",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "data.csv")
				require.NoError(t, os.WriteFile(file, []byte("a,b\n1,2\n"), 0644))
				return file
			},
		},
		{
			name: "missing file",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.csv")
			},
			wantErr:       true,
			errorContains: "file not found",
		},
		{
			name: "directory instead of file",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr:       true,
			errorContains: "is a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			err := validator.ValidateFile(tt.setupFunc(t))

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		return path
	}

	validator := NewFileValidator(nil)

	assert.NoError(t, validator.ValidateSpreadsheet(write("book.xlsx")))
	assert.NoError(t, validator.ValidateSpreadsheet(write("BOOK.XLSM")))

	err := validator.ValidateSpreadsheet(write("legacy.xls"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")

	err = validator.ValidateSpreadsheet(write("~$book.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporary")
}

func TestFileValidator_ValidateDelimited(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "clients.csv")
	txtPath := filepath.Join(dir, "clients.txt")
	xlsxPath := filepath.Join(dir, "clients.xlsx")
	for _, p := range []string{csvPath, txtPath, xlsxPath} {
		require.NoError(t, os.WriteFile(p, []byte("a\n"), 0644))
	}

	validator := NewFileValidator(slog.Default())
	assert.NoError(t, validator.ValidateDelimited(csvPath))
	assert.NoError(t, validator.ValidateDelimited(txtPath))
	assert.Error(t, validator.ValidateDelimited(xlsxPath))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	validator := NewFileValidator(slog.Default())
	dir := filepath.Join(t.TempDir(), "clean", "nested")

	require.NoError(t, validator.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")
}
