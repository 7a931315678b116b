package renderer

import (
	"path"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/registry"
)

//go:generate go run github.com/a-h/templ/cmd/templ generate -f nav.templ

// navGroup is one menu section as taskNav renders it.
type navGroup struct {
	Label string
	Links []navLink
}

// navLink is one numbered task entry in the menu.
type navLink struct {
	Href    templ.SafeURL
	Number  int
	Current bool
}

// TaskHref returns the link to task as seen from a page in fromGroup. Pages
// in the same group link by bare file name; others go through "../".
func TaskHref(l *layout.Layout, fromGroup string, task registry.Task) string {
	out := l.PageOutput(task.Path)
	group, file, _ := strings.Cut(out, "/")
	if group == fromGroup {
		return file
	}
	return path.Join("..", out)
}

// navMenu lists every group with one numbered link per task. The link for
// the page being rendered carries aria-current.
func navMenu(l *layout.Layout, nav *registry.Navigation, current *registry.TaskGroup, currentPath string) templ.Component {
	groups := make([]navGroup, 0, len(nav.Groups))
	for _, g := range nav.Groups {
		links := make([]navLink, 0, len(g.Tasks))
		for i, task := range g.Tasks {
			links = append(links, navLink{
				Href:    templ.SafeURL(TaskHref(l, current.Name, task)),
				Number:  i + 1,
				Current: task.Path == currentPath,
			})
		}
		groups = append(groups, navGroup{Label: g.Label, Links: links})
	}
	return taskNav(groups)
}
