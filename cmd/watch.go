package cmd

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/labsite/internal/build"
	"github.com/conneroisu/labsite/internal/config"
	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/preview"
	"github.com/conneroisu/labsite/internal/watcher"
)

// runSite performs the full build and, unless buildOnly is set, keeps the
// output tree current until ctx is cancelled. The watcher and the preview
// collaborator share one errgroup; a preview command that exits on its own
// does not stop the watcher.
func runSite(ctx context.Context, cfg *config.Config, logger logging.Logger, buildOnly bool) error {
	builder := build.NewBuilder(cfg, logger)
	if _, err := builder.BuildAll(ctx); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if buildOnly {
		return nil
	}

	dispatcher := watcher.NewDispatcher(builder.Layout(), builder, logger)

	fw, err := watcher.NewFileWatcher(cfg.Source.Root, builder.Filter(), logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddHandler(dispatcher.Handle)

	g, gctx := errgroup.WithContext(ctx)

	switch {
	case cfg.Preview.Command != "":
		supervisor := preview.NewSupervisor(cfg.Preview.Command, cfg.Output.Root, logger)
		g.Go(func() error { return supervisor.Run(gctx) })
	case cfg.Preview.Enabled:
		server := preview.NewServer(cfg.Output.Root, cfg.Preview.Host, cfg.Preview.Port, logger)
		dispatcher.OnReload(func(ctx context.Context, event watcher.ChangeEvent) {
			server.NotifyReload(ctx, event.Path)
		})
		g.Go(func() error { return server.Run(gctx) })
	}

	g.Go(func() error { return fw.Run(gctx) })

	return g.Wait()
}
