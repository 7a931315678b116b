// Package renderer composes output documents from templates.
//
// Templates are html/template files. Fragments are parsed into the same set
// under their SourcePath, so a page includes one with
// {{template "partials/head.partial.tmpl" .}}. Task pages are rendered from
// a shared base template that calls named injection functions: nav, content,
// heading, prev, next and title. Every call re-reads its templates from disk.
// The only state a Composer keeps is the list of fragment paths, taken on
// first use and renewed by Refresh.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"

	siteerrors "github.com/conneroisu/labsite/internal/errors"
	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/registry"
	"github.com/conneroisu/labsite/internal/scanner"
)

// MarkdownExt marks task bodies that are converted to HTML before
// injection.
const MarkdownExt = ".md"

// TaskData is the dot value of a task page template.
type TaskData struct {
	Group  *registry.TaskGroup
	Task   registry.Task
	Number int
}

// Composer renders templates under a layout's source root.
type Composer struct {
	layout   *layout.Layout
	filter   *scanner.Filter
	markdown goldmark.Markdown

	fragments []string
	indexed   bool
}

// NewComposer creates a composer.
func NewComposer(l *layout.Layout, filter *scanner.Filter) *Composer {
	return &Composer{
		layout:   l,
		filter:   filter,
		markdown: goldmark.New(),
	}
}

// Refresh rescans the source root for fragments. Renders reuse the list
// until the next Refresh.
func (c *Composer) Refresh() error {
	files, err := c.filter.Index(c.layout.SourceRoot)
	if err != nil {
		return err
	}

	fragments := make([]string, 0, len(files))
	for _, file := range files {
		if c.layout.IsFragment(file) {
			fragments = append(fragments, file)
		}
	}
	c.fragments = fragments
	c.indexed = true
	return nil
}

// RenderSimple renders a standalone template with no data. Injection
// functions are defined but produce nothing outside a task page.
func (c *Composer) RenderSimple(rel string) (string, error) {
	tmpl, err := c.load(rel, emptyFuncs())
	if err != nil {
		return "", err
	}
	return execute(tmpl, rel, nil)
}

// RenderTaskPage renders the task at index in group through the base
// template at baseRel.
func (c *Composer) RenderTaskPage(baseRel string, group *registry.TaskGroup, index int, nav *registry.Navigation) (string, error) {
	if index < 0 || index >= len(group.Tasks) {
		return "", siteerrors.NewValidationError(siteerrors.ErrCodeTaskIndexOutRange,
			fmt.Sprintf("task index %d out of range for %d tasks", index, len(group.Tasks))).
			WithPath(group.Name)
	}
	task := group.Tasks[index]

	body, err := c.taskBody(task)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	menu, err := templ.ToGoHTML(ctx, navMenu(c.layout, nav, group, task.Path))
	if err != nil {
		return "", siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateExecute, "failed to render navigation", err).
			WithPath(task.Path)
	}

	var prev, next template.HTML
	if index > 0 {
		target := group.Tasks[index-1]
		prev, err = templ.ToGoHTML(ctx, taskLink("prev", templ.SafeURL(TaskHref(c.layout, group.Name, target)), heading(index-1)))
		if err != nil {
			return "", siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateExecute, "failed to render link", err).
				WithPath(task.Path)
		}
	}
	if index < len(group.Tasks)-1 {
		target := group.Tasks[index+1]
		next, err = templ.ToGoHTML(ctx, taskLink("next", templ.SafeURL(TaskHref(c.layout, group.Name, target)), heading(index+1)))
		if err != nil {
			return "", siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateExecute, "failed to render link", err).
				WithPath(task.Path)
		}
	}

	funcs := template.FuncMap{
		"nav":     func() template.HTML { return menu },
		"content": func() template.HTML { return body },
		"heading": func() string { return heading(index) },
		"prev":    func() template.HTML { return prev },
		"next":    func() template.HTML { return next },
		"title":   func() string { return heading(index) + " | " + group.Label },
	}

	tmpl, err := c.load(baseRel, funcs)
	if err != nil {
		return "", err
	}
	return execute(tmpl, baseRel, TaskData{Group: group, Task: task, Number: index + 1})
}

// taskBody returns the page's raw content, converting markdown.
func (c *Composer) taskBody(task registry.Task) (template.HTML, error) {
	raw, err := os.ReadFile(c.layout.SourcePath(task.Path))
	if err != nil {
		return "", siteerrors.WrapRead(err, task.Path)
	}

	if !strings.EqualFold(path.Ext(task.Path), MarkdownExt) {
		return template.HTML(raw), nil
	}

	var buf bytes.Buffer
	if err := c.markdown.Convert(raw, &buf); err != nil {
		return "", siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateParse, "failed to convert markdown", err).
			WithPath(task.Path)
	}
	return template.HTML(buf.String()), nil
}

// load parses rel as the root template and every known fragment as an
// associated template named by its SourcePath.
func (c *Composer) load(rel string, funcs template.FuncMap) (*template.Template, error) {
	rel = layout.Normalize(rel)

	src, err := os.ReadFile(c.layout.SourcePath(rel))
	if err != nil {
		return nil, siteerrors.WrapRead(err, rel)
	}

	root, err := template.New(rel).Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateParse, "failed to parse template", err).
			WithPath(rel)
	}

	if !c.indexed {
		if err := c.Refresh(); err != nil {
			return nil, err
		}
	}

	for _, file := range c.fragments {
		if file == rel {
			continue
		}

		content, err := os.ReadFile(c.layout.SourcePath(file))
		if err != nil {
			return nil, siteerrors.WrapRead(err, file)
		}
		if _, err := root.New(file).Parse(string(content)); err != nil {
			return nil, siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateParse, "failed to parse fragment", err).
				WithPath(file)
		}
	}

	return root, nil
}

func execute(tmpl *template.Template, rel string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", siteerrors.NewTemplateError(siteerrors.ErrCodeTemplateExecute, "failed to execute template", err).
			WithPath(rel)
	}
	return buf.String(), nil
}

func heading(index int) string {
	return fmt.Sprintf("Task %d", index+1)
}

func emptyFuncs() template.FuncMap {
	none := func() template.HTML { return "" }
	blank := func() string { return "" }
	return template.FuncMap{
		"nav":     none,
		"content": none,
		"heading": blank,
		"prev":    none,
		"next":    none,
		"title":   blank,
	}
}
