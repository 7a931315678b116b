package watcher

import "github.com/conneroisu/labsite/internal/layout"

// Category says which build action a changed path needs.
type Category int

const (
	// CategoryGroupChange: a path in a task group, a group directory
	// itself, or the task base template. Every group is rebuilt.
	CategoryGroupChange Category = iota
	// CategoryTemplateFragment: an include-only template. Nothing is
	// rebuilt.
	CategoryTemplateFragment
	// CategoryTemplateRender: a standalone template rendered to its own
	// document.
	CategoryTemplateRender
	// CategoryGenericAsset: anything else, mirrored as is.
	CategoryGenericAsset
)

func (c Category) String() string {
	switch c {
	case CategoryGroupChange:
		return "group_change"
	case CategoryTemplateFragment:
		return "template_fragment"
	case CategoryTemplateRender:
		return "template_render"
	case CategoryGenericAsset:
		return "generic_asset"
	default:
		return "unknown"
	}
}

// Classify returns the category of SourcePath rel. Rules are checked in
// order and the first match wins, so the task base template counts as a
// group change even though it is also a fragment.
func Classify(rel string, l *layout.Layout) Category {
	rel = layout.Normalize(rel)
	switch {
	case l.InGroup(rel), l.IsTaskBase(rel):
		return CategoryGroupChange
	case l.IsFragment(rel):
		return CategoryTemplateFragment
	case l.IsTemplate(rel):
		return CategoryTemplateRender
	default:
		return CategoryGenericAsset
	}
}

// ClassifyEvent classifies event.Path, promoting root-level entries named
// like a group to a group change when the event shows a directory appeared
// or something by that name disappeared. A removal carries no file type,
// so a removed root-level file is rebuilt the same way.
func ClassifyEvent(event ChangeEvent, l *layout.Layout) Category {
	rel := layout.Normalize(event.Path)
	if layout.IsRootEntry(rel) && l.IsGroupDir(rel) {
		switch event.Type {
		case EventTypeDirAdded, EventTypeFileRemoved:
			return CategoryGroupChange
		}
	}
	return Classify(rel, l)
}
