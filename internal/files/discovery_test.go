package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0644))
	}
}

func paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestFindTabularFiles(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "b.csv", "a.XLSX", "notes.md", "nested/c.csv")

	files, err := NewDiscovery("").FindTabularFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.XLSX"), filepath.Join(dir, "b.csv")}, paths(files))
	assert.Equal(t, int64(4), files[0].Size)
}

func TestFindTabularFiles_MissingDir(t *testing.T) {
	_, err := NewDiscovery("").FindTabularFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	createFiles(t, dir, "in/a.csv", "in/b.csv", "in/readme.md", "x.xlsx", "y.csv")

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "single file",
			args: []string{"y.csv"},
			want: []string{filepath.Join(dir, "y.csv")},
		},
		{
			name: "directory",
			args: []string{"in"},
			want: []string{filepath.Join(dir, "in", "a.csv"), filepath.Join(dir, "in", "b.csv")},
		},
		{
			name: "glob",
			args: []string{"*.csv"},
			want: []string{filepath.Join(dir, "y.csv")},
		},
		{
			name: "duplicates removed",
			args: []string{"y.csv", "*.csv", filepath.Join(dir, "y.csv")},
			want: []string{filepath.Join(dir, "y.csv")},
		},
		{
			name: "missing file kept",
			args: []string{"missing.csv"},
			want: []string{filepath.Join(dir, "missing.csv")},
		},
		{
			name:    "glob without matches",
			args:    []string{"*.parquet"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := NewDiscovery(dir).Expand(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(files))
		})
	}
}

func TestIsTabular(t *testing.T) {
	assert.True(t, IsTabular("a.csv"))
	assert.True(t, IsTabular("B.XLSX"))
	assert.False(t, IsTabular("c.json"))
	assert.False(t, IsTabular("noext"))
}
