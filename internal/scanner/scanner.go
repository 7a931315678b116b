// Package scanner lists the files of a source tree.
//
// Index walks a root directory recursively and returns every regular file as
// a SourcePath. Directories whose basename is excluded are pruned without
// being descended into, and files are dropped by basename, by extension, or
// as editor temp files. The result is sorted so repeated scans of an
// unchanged tree agree.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	siteerrors "github.com/conneroisu/labsite/internal/errors"
	"github.com/conneroisu/labsite/internal/layout"
)

// IndexOptions configures a scan.
type IndexOptions struct {
	// ExcludeNames are basenames of directories or files to skip entirely.
	ExcludeNames []string
	// ExcludeExtensions are file extensions (with dot) to skip.
	ExcludeExtensions []string
}

// Filter is the compiled form of IndexOptions. The watcher shares it so a
// directory pruned from the index is never watched either.
type Filter struct {
	names      map[string]struct{}
	extensions map[string]struct{}
}

// NewFilter compiles opts into set lookups.
func NewFilter(opts IndexOptions) *Filter {
	f := &Filter{
		names:      make(map[string]struct{}, len(opts.ExcludeNames)),
		extensions: make(map[string]struct{}, len(opts.ExcludeExtensions)),
	}
	for _, name := range opts.ExcludeNames {
		f.names[name] = struct{}{}
	}
	for _, ext := range opts.ExcludeExtensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[strings.ToLower(ext)] = struct{}{}
	}
	return f
}

// ExcludesName reports whether a file or directory basename is excluded.
func (f *Filter) ExcludesName(name string) bool {
	_, ok := f.names[name]
	return ok
}

// ExcludesFile reports whether a file is excluded by basename, extension,
// or as an editor temp file.
func (f *Filter) ExcludesFile(name string) bool {
	if f.ExcludesName(name) || IsEditorTemp(name) {
		return true
	}
	_, ok := f.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsEditorTemp reports whether a basename is a swap, backup or lock file
// written by an editor. These are never part of a site.
func IsEditorTemp(name string) bool {
	switch {
	case strings.HasSuffix(name, "~"),
		strings.HasSuffix(name, ".swp"),
		strings.HasSuffix(name, ".swx"),
		strings.HasPrefix(name, ".#"),
		name == "4913":
		return true
	}
	return false
}

// ExcludesPath reports whether any segment of a SourcePath is excluded, or
// the file itself is.
func (f *Filter) ExcludesPath(rel string) bool {
	segments := strings.Split(layout.Normalize(rel), "/")
	for i, segment := range segments {
		if i == len(segments)-1 {
			return f.ExcludesFile(segment)
		}
		if f.ExcludesName(segment) {
			return true
		}
	}
	return false
}

// Index lists every regular file under root as a sorted slice of
// SourcePaths. A missing or unreadable root, or any error met during the
// walk, fails the whole scan.
func Index(root string, opts IndexOptions) ([]string, error) {
	return NewFilter(opts).Index(root)
}

// Index walks root with the filter applied.
func (f *Filter) Index(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, siteerrors.WrapRead(err, root)
	}
	if !info.IsDir() {
		return nil, siteerrors.NewIOError(siteerrors.ErrCodeReadFailed, "source root is not a directory", nil).
			WithPath(root)
	}

	files := make([]string, 0, 64)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return siteerrors.WrapRead(err, path)
		}

		if path == root {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if f.ExcludesName(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || f.ExcludesFile(name) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return siteerrors.WrapRead(err, path)
		}
		files = append(files, layout.Normalize(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Dirs lists the immediate subdirectories of root, sorted by name.
func (f *Filter) Dirs(root string) ([]string, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !f.ExcludesName(entry.Name()) {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs, nil
}

func readDir(root string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, siteerrors.WrapRead(err, root)
	}
	return entries, nil
}
