package watcher

import (
	"context"

	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/registry"
)

// Actions are the build operations a change can trigger. *build.Builder
// implements it.
type Actions interface {
	RebuildGroups(ctx context.Context) (*registry.Navigation, error)
	RenderTemplate(ctx context.Context, rel string) error
	CopyAsset(ctx context.Context, rel string) error
	RemoveOutput(ctx context.Context, rel string) error
	MirrorDir(ctx context.Context, rel string) error
	// Changes is a monotonic count of output writes and removals.
	Changes() uint64
}

// ReloadFunc is called after a successfully handled event wrote or removed
// output.
type ReloadFunc func(ctx context.Context, event ChangeEvent)

// Dispatcher routes change events to build actions.
type Dispatcher struct {
	layout  *layout.Layout
	actions Actions
	reload  []ReloadFunc
	logger  logging.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(l *layout.Layout, actions Actions, logger logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Dispatcher{
		layout:  l,
		actions: actions,
		logger:  logger.WithComponent("dispatch"),
	}
}

// OnReload registers fn to run after every handled event that changed the
// output.
func (d *Dispatcher) OnReload(fn ReloadFunc) {
	d.reload = append(d.reload, fn)
}

// Handle performs the build action for event. It has the ChangeHandler
// signature so it can be registered on a FileWatcher directly.
func (d *Dispatcher) Handle(ctx context.Context, event ChangeEvent) error {
	category := ClassifyEvent(event, d.layout)
	d.logger.Debug(ctx, "Handling change",
		"path", event.Path,
		"event", event.Type.String(),
		"category", category.String())

	before := d.actions.Changes()
	if err := d.apply(ctx, category, event); err != nil {
		return err
	}
	if d.actions.Changes() != before {
		for _, fn := range d.reload {
			fn(ctx, event)
		}
	}
	return nil
}

func (d *Dispatcher) apply(ctx context.Context, category Category, event ChangeEvent) error {
	switch category {
	case CategoryGroupChange:
		if event.Type == EventTypeFileRemoved {
			if err := d.actions.RemoveOutput(ctx, event.Path); err != nil {
				return err
			}
		}
		_, err := d.actions.RebuildGroups(ctx)
		return err

	case CategoryTemplateFragment:
		// Pages that include it are rebuilt when they change themselves.
		return nil

	case CategoryTemplateRender:
		switch event.Type {
		case EventTypeFileRemoved:
			return d.actions.RemoveOutput(ctx, event.Path)
		case EventTypeDirAdded:
			return d.actions.MirrorDir(ctx, event.Path)
		default:
			return d.actions.RenderTemplate(ctx, event.Path)
		}

	default:
		switch event.Type {
		case EventTypeFileRemoved:
			return d.actions.RemoveOutput(ctx, event.Path)
		case EventTypeDirAdded:
			return d.actions.MirrorDir(ctx, event.Path)
		default:
			return d.actions.CopyAsset(ctx, event.Path)
		}
	}
}
