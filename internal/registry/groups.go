// Package registry discovers task groups and the ordered task pages inside
// them, and exposes the result as a read-only navigation model.
//
// A task group is an immediate subdirectory of the source root whose name
// starts with the group prefix. Its tasks are the page files directly inside
// it, ordered by the number found in each filename so that task2 comes
// before task10. The model is rebuilt from disk on every call to Resolve and
// never updated in place.
package registry

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/labsite/internal/config"
	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/scanner"
)

var ordinalPattern = regexp.MustCompile(`\d+`)

// Task is one page file belonging to a group.
type Task struct {
	// Path is the SourcePath of the page, e.g. "labwork_3/task5.php".
	Path string `json:"path" yaml:"path"`
	// Name is the page's file name.
	Name string `json:"name" yaml:"name"`
	// Ordinal is the first number in the file name, or 0.
	Ordinal int `json:"ordinal" yaml:"ordinal"`
	// Numbered is false when the file name carried no usable number.
	Numbered bool `json:"numbered" yaml:"numbered"`
}

// TaskGroup is a directory holding an ordered family of task pages.
type TaskGroup struct {
	Name    string `json:"name" yaml:"name"`
	Label   string `json:"label" yaml:"label"`
	Ordinal int    `json:"ordinal" yaml:"ordinal"`
	Tasks   []Task `json:"tasks" yaml:"tasks"`
}

// Navigation is the set of all task groups in display order.
type Navigation struct {
	Groups []*TaskGroup `json:"groups" yaml:"groups"`
	byName map[string]*TaskGroup
}

// NewNavigation indexes groups, which must already be in display order.
func NewNavigation(groups []*TaskGroup) *Navigation {
	nav := &Navigation{
		Groups: groups,
		byName: make(map[string]*TaskGroup, len(groups)),
	}
	for _, g := range groups {
		nav.byName[g.Name] = g
	}
	return nav
}

// Group looks up a group by directory name.
func (n *Navigation) Group(name string) (*TaskGroup, bool) {
	g, ok := n.byName[name]
	return g, ok
}

// TaskCount returns the number of tasks across all groups.
func (n *Navigation) TaskCount() int {
	total := 0
	for _, g := range n.Groups {
		total += len(g.Tasks)
	}
	return total
}

// ParseOrdinal extracts the first run of digits from a file name stem.
// ok is false when there is none or it does not fit in an int.
func ParseOrdinal(stem string) (ordinal int, ok bool) {
	token := ordinalPattern.FindString(stem)
	if token == "" {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GroupLabel turns a group directory name into a menu label:
// "labwork_3" becomes "Labwork 3".
func GroupLabel(name string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// SortTasks orders tasks by ordinal. Ties and unnumbered tasks keep their
// relative input order.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Ordinal < tasks[j].Ordinal
	})
}

// Resolver discovers task groups on disk.
type Resolver struct {
	layout *layout.Layout
	filter *scanner.Filter
	policy string
	logger logging.Logger
}

// NewResolver creates a resolver. policy is config.UnnumberedZero or
// config.UnnumberedSkip.
func NewResolver(l *layout.Layout, filter *scanner.Filter, policy string, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Resolver{
		layout: l,
		filter: filter,
		policy: policy,
		logger: logger.WithComponent("registry"),
	}
}

// Resolve lists every task group under the source root with its tasks in
// ordinal order. A group without pages is returned with no tasks.
func (r *Resolver) Resolve(ctx context.Context) (*Navigation, error) {
	dirs, err := r.filter.Dirs(r.layout.SourceRoot)
	if err != nil {
		return nil, err
	}

	groups := make([]*TaskGroup, 0, len(dirs))
	for _, dir := range dirs {
		if !r.layout.IsGroupDir(dir) {
			continue
		}

		group, err := r.resolveGroup(ctx, dir)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Ordinal < groups[j].Ordinal
	})

	return NewNavigation(groups), nil
}

func (r *Resolver) resolveGroup(ctx context.Context, name string) (*TaskGroup, error) {
	files, err := r.filter.Index(filepath.Join(r.layout.SourceRoot, name))
	if err != nil {
		return nil, err
	}

	ordinal, _ := ParseOrdinal(strings.TrimPrefix(name, r.layout.GroupPrefix))
	group := &TaskGroup{
		Name:    name,
		Label:   GroupLabel(name),
		Ordinal: ordinal,
		Tasks:   make([]Task, 0, len(files)),
	}

	for _, file := range files {
		rel := name + "/" + file
		if !r.layout.IsPage(rel) {
			continue
		}

		stem := strings.TrimSuffix(path.Base(file), r.layout.PageExt)
		n, ok := ParseOrdinal(stem)
		if !ok {
			if r.policy == config.UnnumberedSkip {
				r.logger.Debug(ctx, "Skipping task without a number", "path", rel)
				continue
			}
			r.logger.Debug(ctx, "Task has no number, ordering it first", "path", rel)
		}

		group.Tasks = append(group.Tasks, Task{
			Path:     rel,
			Name:     path.Base(file),
			Ordinal:  n,
			Numbered: ok,
		})
	}

	SortTasks(group.Tasks)
	return group, nil
}
