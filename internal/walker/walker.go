// Package walker discovers indexable source files under a root directory.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// SourceFile is one discovered file with its detected language. Path is
// repository-relative with forward slashes.
type SourceFile struct {
	Path     string
	AbsPath  string
	Language domain.Language
}

// maxFileSize is the largest file considered for indexing (1 MiB).
const maxFileSize = 1 << 20

// skipDirs are excluded from every scan: build output, dependency caches.
// Hidden (dot-prefixed) directories are excluded separately.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"bin":          true,
	"obj":          true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// FindSourceFiles walks root and returns every regular file whose extension
// maps to one of the requested languages. Hidden directories, build output,
// dependency directories, symlinks, empty files and oversized files are
// skipped. Walk errors on individual entries are skipped, not fatal.
func FindSourceFiles(root string, extensions map[string]domain.Language) ([]SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []SourceFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() == 0 || info.Size() > maxFileSize {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		files = append(files, SourceFile{
			Path:     filepath.ToSlash(rel),
			AbsPath:  path,
			Language: lang,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SkipDir reports whether a directory name is excluded from scans. The same
// filter applies to full scans and to git-derived change sets.
func SkipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return skipDirs[name]
}

// InSkippedDir reports whether any segment of a relative path is excluded.
func InSkippedDir(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "" || part == "." {
			continue
		}
		if SkipDir(part) {
			return true
		}
	}
	return false
}
