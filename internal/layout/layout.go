// Package layout holds the naming conventions that map a source tree onto
// an output tree: which files are templates, which are fragments, which
// directories are task groups, and where each source path lands in the
// output root.
//
// All paths handled here are SourcePaths: forward-slash, relative to the
// source root, with no leading "./" or "/".
package layout

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/labsite/internal/config"
	siteerrors "github.com/conneroisu/labsite/internal/errors"
)

// Layout describes the source and output roots and the file conventions
// that relate them.
type Layout struct {
	SourceRoot string
	OutputRoot string

	TemplateExt    string
	FragmentSuffix string
	OutputExt      string
	TaskBase       string

	GroupPrefix string
	PageExt     string
}

// New builds a Layout from configuration.
func New(cfg *config.Config) *Layout {
	return &Layout{
		SourceRoot:     cfg.Source.Root,
		OutputRoot:     cfg.Output.Root,
		TemplateExt:    cfg.Templates.Extension,
		FragmentSuffix: cfg.Templates.FragmentSuffix,
		OutputExt:      cfg.Templates.OutputExtension,
		TaskBase:       Normalize(cfg.Templates.TaskBase),
		GroupPrefix:    cfg.Groups.Prefix,
		PageExt:        cfg.Groups.PageExtension,
	}
}

// Normalize converts p into SourcePath form: forward slashes, cleaned, with
// no leading "./" or "/".
func Normalize(p string) string {
	p = filepath.ToSlash(p)
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// SourceRel converts a path on disk under the source root (as delivered by
// the filesystem watcher) into a SourcePath.
func (l *Layout) SourceRel(p string) (string, error) {
	rel, err := filepath.Rel(l.SourceRoot, p)
	if err != nil {
		return "", siteerrors.NewValidationError(siteerrors.ErrCodePathOutsideRoot,
			"path is not under the source root").WithPath(p)
	}
	rel = Normalize(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", siteerrors.NewValidationError(siteerrors.ErrCodePathOutsideRoot,
			"path is not under the source root").WithPath(p)
	}
	return rel, nil
}

// SourcePath returns the on-disk location of a SourcePath.
func (l *Layout) SourcePath(rel string) string {
	return filepath.Join(l.SourceRoot, filepath.FromSlash(rel))
}

// OutputPath returns the on-disk location of an output-relative path.
func (l *Layout) OutputPath(rel string) string {
	return filepath.Join(l.OutputRoot, filepath.FromSlash(rel))
}

// IsGroupDir reports whether name is a task group directory name.
func (l *Layout) IsGroupDir(name string) bool {
	return strings.HasPrefix(name, l.GroupPrefix) && len(name) > len(l.GroupPrefix)
}

// GroupOf returns the group that rel lies under. Only nested paths are
// members: a root-level entry named like a group may be a plain file, so
// callers holding a directory check it with IsGroupDir instead.
func (l *Layout) GroupOf(rel string) (string, bool) {
	rel = Normalize(rel)
	first, rest, nested := strings.Cut(rel, "/")
	if !nested || rest == "" || !l.IsGroupDir(first) {
		return "", false
	}
	return first, true
}

// InGroup reports whether rel lies inside a group directory.
func (l *Layout) InGroup(rel string) bool {
	_, ok := l.GroupOf(rel)
	return ok
}

// IsRootEntry reports whether rel names an entry directly under the source
// root.
func IsRootEntry(rel string) bool {
	rel = Normalize(rel)
	return rel != "" && !strings.Contains(rel, "/")
}

// IsPage reports whether rel is a task page: a file with the page extension
// directly inside a group directory.
func (l *Layout) IsPage(rel string) bool {
	rel = Normalize(rel)
	group, name, ok := strings.Cut(rel, "/")
	if !ok || strings.Contains(name, "/") || !l.IsGroupDir(group) {
		return false
	}
	return strings.HasSuffix(name, l.PageExt) && len(name) > len(l.PageExt)
}

// IsTemplate reports whether rel has the template extension. Fragments are
// templates too.
func (l *Layout) IsTemplate(rel string) bool {
	return strings.HasSuffix(rel, l.TemplateExt)
}

// IsFragment reports whether rel is a fragment that is only ever included by
// other templates.
func (l *Layout) IsFragment(rel string) bool {
	return strings.HasSuffix(rel, l.FragmentSuffix)
}

// IsTaskBase reports whether rel is the shared task page template.
func (l *Layout) IsTaskBase(rel string) bool {
	return Normalize(rel) == l.TaskBase
}

// IsRenderable reports whether rel is a template rendered to its own output
// document.
func (l *Layout) IsRenderable(rel string) bool {
	return l.IsTemplate(rel) && !l.IsFragment(rel) && !l.IsTaskBase(rel) && !l.InGroup(rel)
}

// TemplateOutput maps a renderable template to its output-relative path.
func (l *Layout) TemplateOutput(rel string) string {
	return strings.TrimSuffix(rel, l.TemplateExt) + l.OutputExt
}

// PageOutput maps a task page to its output-relative path.
func (l *Layout) PageOutput(rel string) string {
	return strings.TrimSuffix(rel, l.PageExt) + l.OutputExt
}

// MirrorOutput returns the output-relative path that source path rel
// produces, whatever kind of file it is.
func (l *Layout) MirrorOutput(rel string) string {
	rel = Normalize(rel)
	switch {
	case l.IsPage(rel):
		return l.PageOutput(rel)
	case l.IsRenderable(rel):
		return l.TemplateOutput(rel)
	default:
		return rel
	}
}
