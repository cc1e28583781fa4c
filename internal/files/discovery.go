package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Extensions readable by the dataset loader
var Extensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery resolves command line arguments into input files
type Discovery struct {
	basePath string
}

// NewDiscovery creates a discovery rooted at basePath. Relative arguments
// are resolved against it.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// Expand turns files, directories and glob patterns into a sorted list of
// unique files. Directories contribute their tabular files, not recursively.
// Explicit file arguments are kept even when they do not exist so the
// caller can report them.
func (d *Discovery) Expand(args []string) ([]FileInfo, error) {
	seen := make(map[string]struct{})
	var out []FileInfo

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		fi := FileInfo{Path: path, Name: filepath.Base(path)}
		if info, err := os.Stat(path); err == nil {
			fi.Size = info.Size()
			fi.ModTime = info.ModTime()
		}
		out = append(out, fi)
	}

	for _, arg := range args {
		path := d.resolve(arg)

		if info, err := os.Stat(path); err == nil && info.IsDir() {
			found, err := d.FindTabularFiles(path)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f.Path)
			}
			continue
		}

		if strings.ContainsAny(arg, "*?[") {
			matches, err := filepath.Glob(path)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() {
					add(m)
				}
			}
			continue
		}

		add(path)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	return out, nil
}

// FindTabularFiles lists the files in dir whose extension the loader reads,
// sorted by name.
func (d *Discovery) FindTabularFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsTabular(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// IsTabular reports whether name has a loadable extension
func IsTabular(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(d.basePath, path)
}
