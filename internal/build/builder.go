package build

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/labsite/internal/config"
	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/registry"
	"github.com/conneroisu/labsite/internal/renderer"
	"github.com/conneroisu/labsite/internal/scanner"
)

// Result summarizes a full build.
type Result struct {
	RunID    string        `json:"run_id"`
	Pages    int           `json:"pages"`
	Assets   int           `json:"assets"`
	Groups   int           `json:"groups"`
	Tasks    int           `json:"tasks"`
	Stats    Stats         `json:"stats"`
	Duration time.Duration `json:"duration"`
}

// Builder produces the output tree. The watcher drives the same single-path
// operations that BuildAll uses, so incremental and full builds agree.
// A Builder is not safe for concurrent use.
type Builder struct {
	layout   *layout.Layout
	filter   *scanner.Filter
	resolver *registry.Resolver
	composer *renderer.Composer
	writer   *Writer
	logger   logging.Logger
}

// NewBuilder wires a builder from configuration.
func NewBuilder(cfg *config.Config, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	l := layout.New(cfg)
	filter := scanner.NewFilter(scanner.IndexOptions{
		ExcludeNames:      cfg.Source.Exclude,
		ExcludeExtensions: cfg.Source.ExcludeExtensions,
	})

	return &Builder{
		layout:   l,
		filter:   filter,
		resolver: registry.NewResolver(l, filter, cfg.Groups.Unnumbered, logger),
		composer: renderer.NewComposer(l, filter),
		writer:   NewWriter(l.OutputRoot, NewHashProvider(NewHashCache())),
		logger:   logger.WithComponent("build"),
	}
}

// Layout returns the path conventions the builder works with.
func (b *Builder) Layout() *layout.Layout {
	return b.layout
}

// Filter returns the exclusion filter shared with the watcher.
func (b *Builder) Filter() *scanner.Filter {
	return b.filter
}

// Resolver returns the task group resolver.
func (b *Builder) Resolver() *registry.Resolver {
	return b.resolver
}

// Stats returns the writer counters.
func (b *Builder) Stats() Stats {
	return b.writer.Stats()
}

// Changes returns the number of output writes and removals so far.
func (b *Builder) Changes() uint64 {
	return b.writer.Changes()
}

// BuildAll renders every top-level template, copies every asset and
// rebuilds every task group. The first error aborts the build.
func (b *Builder) BuildAll(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := b.logger.With("run_id", result.RunID)

	b.writer.ResetStats()
	logger.Info(ctx, "Building site", "source", b.layout.SourceRoot, "output", b.layout.OutputRoot)

	if err := b.writer.EnsureDir(b.layout.OutputRoot); err != nil {
		return nil, err
	}

	files, err := b.filter.Index(b.layout.SourceRoot)
	if err != nil {
		return nil, err
	}
	if err := b.composer.Refresh(); err != nil {
		return nil, err
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch {
		case b.layout.InGroup(rel):
			// RebuildGroups owns everything under group directories.
			continue
		case b.layout.IsRenderable(rel):
			if err := b.renderTemplate(ctx, logger, rel); err != nil {
				return nil, err
			}
			result.Pages++
		case b.layout.IsTemplate(rel):
			// Fragments and the task base only render through other templates.
			continue
		default:
			if err := b.copyAsset(ctx, logger, rel); err != nil {
				return nil, err
			}
			result.Assets++
		}
	}

	nav, err := b.rebuildGroups(ctx, logger)
	if err != nil {
		return nil, err
	}
	result.Groups = len(nav.Groups)
	result.Tasks = nav.TaskCount()

	result.Stats = b.writer.Stats()
	result.Duration = time.Since(start)
	logger.Info(ctx, "Build complete",
		"pages", result.Pages,
		"assets", result.Assets,
		"groups", result.Groups,
		"tasks", result.Tasks,
		"written", result.Stats.Written,
		"skipped", result.Stats.Skipped,
		"duration", result.Duration)

	return result, nil
}

// RebuildGroups re-resolves every task group and rewrites its pages and
// assets. It returns the navigation model used for the pages.
func (b *Builder) RebuildGroups(ctx context.Context) (*registry.Navigation, error) {
	if err := b.composer.Refresh(); err != nil {
		return nil, err
	}
	return b.rebuildGroups(ctx, b.logger)
}

func (b *Builder) rebuildGroups(ctx context.Context, logger logging.Logger) (*registry.Navigation, error) {
	nav, err := b.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	for _, group := range nav.Groups {
		if err := b.writer.EnsureDir(b.layout.OutputPath(group.Name)); err != nil {
			return nil, err
		}

		for i, task := range group.Tasks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			html, err := b.composer.RenderTaskPage(b.layout.TaskBase, group, i, nav)
			if err != nil {
				return nil, err
			}

			out := b.layout.PageOutput(task.Path)
			wrote, err := b.writer.MaybeWrite(b.layout.OutputPath(out), []byte(html))
			if err != nil {
				return nil, err
			}
			if wrote {
				logger.Info(ctx, "Rebuilding "+task.Path+" to "+out)
			}
		}

		if err := b.copyGroupAssets(ctx, logger, group.Name); err != nil {
			return nil, err
		}
	}

	logger.Debug(ctx, "Task groups rebuilt", "groups", len(nav.Groups), "tasks", nav.TaskCount())
	return nav, nil
}

// copyGroupAssets mirrors every file in a group directory that is neither a
// task page nor a template source.
func (b *Builder) copyGroupAssets(ctx context.Context, logger logging.Logger, group string) error {
	files, err := b.filter.Index(b.layout.SourcePath(group))
	if err != nil {
		return err
	}

	for _, file := range files {
		rel := group + "/" + file
		if b.layout.IsPage(rel) || b.layout.IsTemplate(rel) {
			continue
		}
		if err := b.copyAsset(ctx, logger, rel); err != nil {
			return err
		}
	}
	return nil
}

// RenderTemplate renders one top-level template to its output document.
func (b *Builder) RenderTemplate(ctx context.Context, rel string) error {
	if err := b.composer.Refresh(); err != nil {
		return err
	}
	return b.renderTemplate(ctx, b.logger, layout.Normalize(rel))
}

func (b *Builder) renderTemplate(ctx context.Context, logger logging.Logger, rel string) error {
	html, err := b.composer.RenderSimple(rel)
	if err != nil {
		return err
	}

	out := b.layout.TemplateOutput(rel)
	wrote, err := b.writer.MaybeWrite(b.layout.OutputPath(out), []byte(html))
	if err != nil {
		return err
	}
	if wrote {
		logger.Info(ctx, "Rebuilding "+rel+" to "+out)
	} else {
		logger.Debug(ctx, "Unchanged", "path", out)
	}
	return nil
}

// CopyAsset mirrors one source file into the output root.
func (b *Builder) CopyAsset(ctx context.Context, rel string) error {
	return b.copyAsset(ctx, b.logger, layout.Normalize(rel))
}

func (b *Builder) copyAsset(ctx context.Context, logger logging.Logger, rel string) error {
	wrote, err := b.writer.CopyFile(b.layout.SourcePath(rel), b.layout.OutputPath(rel))
	if err != nil {
		return err
	}
	if wrote {
		logger.Info(ctx, "Copying "+rel+" to "+filepath.ToSlash(b.layout.OutputRoot)+"/")
	} else {
		logger.Debug(ctx, "Unchanged", "path", rel)
	}
	return nil
}

// RemoveOutput deletes whatever rel produced in the output root.
func (b *Builder) RemoveOutput(ctx context.Context, rel string) error {
	rel = layout.Normalize(rel)
	if rel == "" {
		return nil
	}

	out := b.layout.MirrorOutput(rel)
	if err := b.writer.Remove(b.layout.OutputPath(out)); err != nil {
		return err
	}
	b.logger.Info(ctx, "Removed "+out)
	return nil
}

// MirrorDir creates the output directory for source directory rel.
func (b *Builder) MirrorDir(ctx context.Context, rel string) error {
	rel = layout.Normalize(rel)
	if err := b.writer.EnsureDir(b.layout.OutputPath(rel)); err != nil {
		return err
	}
	b.logger.Debug(ctx, "Mirrored directory", "path", rel)
	return nil
}
