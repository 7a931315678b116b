// Package watcher turns filesystem notifications under the source root into
// build actions.
//
// FileWatcher wraps fsnotify and emits one ChangeEvent per relevant
// notification. Events are handled one at a time, each to completion,
// before the next is read; there is no debouncing. Dispatcher classifies an
// event and calls the matching build action.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/logging"
	"github.com/conneroisu/labsite/internal/scanner"
)

// FileWatcher watches a source tree recursively.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	exclude  *scanner.Filter
	filters  []FileFilter
	handlers []ChangeHandler
	logger   logging.Logger
	mutex    sync.RWMutex
}

// ChangeEvent represents a file change event. Path is a SourcePath.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeFileAdded EventType = iota
	EventTypeFileChanged
	EventTypeFileRemoved
	EventTypeDirAdded
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeFileAdded:
		return "file_added"
	case EventTypeFileChanged:
		return "file_changed"
	case EventTypeFileRemoved:
		return "file_removed"
	case EventTypeDirAdded:
		return "dir_added"
	default:
		return "unknown"
	}
}

// FileFilter reports whether an event for the SourcePath should be kept.
type FileFilter func(rel string) bool

// ChangeHandler handles one change event.
type ChangeHandler func(ctx context.Context, event ChangeEvent) error

// NewFileWatcher creates a watcher for root. Paths that exclude matches are
// neither watched nor reported.
func NewFileWatcher(root string, exclude *scanner.Filter, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if exclude == nil {
		exclude = scanner.NewFilter(scanner.IndexOptions{})
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &FileWatcher{
		watcher:  watcher,
		root:     filepath.Clean(root),
		exclude:  exclude,
		filters:  make([]FileFilter, 0),
		handlers: make([]ChangeHandler, 0),
		logger:   logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches dir and every non-excluded directory below it.
func (fw *FileWatcher) AddRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && fw.exclude.ExcludesName(d.Name()) {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
}

// WatchList returns the directories currently watched.
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

// Run watches the source root until ctx is done. Handler errors are logged
// and the loop continues with the next event.
func (fw *FileWatcher) Run(ctx context.Context) error {
	if err := fw.AddRecursive(fw.root); err != nil {
		return err
	}
	fw.logger.Info(ctx, "Watching for changes...", "root", fw.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			for _, change := range fw.translate(ctx, event) {
				fw.dispatch(ctx, change)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Error(ctx, err, "File watcher error")
		}
	}
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}

func (fw *FileWatcher) dispatch(ctx context.Context, change ChangeEvent) {
	fw.mutex.RLock()
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, change); err != nil {
			fw.logger.Error(ctx, err, "Failed to handle change",
				"path", change.Path, "event", change.Type.String())
		}
	}
}

// translate converts one fsnotify event into zero or more change events.
// A created directory is watched and replayed: the directory itself and
// every file already inside it are reported.
func (fw *FileWatcher) translate(ctx context.Context, event fsnotify.Event) []ChangeEvent {
	rel, ok := fw.relevant(event.Name)
	if !ok {
		return nil
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Gone before we looked; its Remove event follows.
			return nil
		}
		if info.IsDir() {
			return fw.replayDir(ctx, event.Name)
		}
		return []ChangeEvent{newEvent(EventTypeFileAdded, rel, info)}
	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return []ChangeEvent{newEvent(EventTypeFileChanged, rel, info)}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return []ChangeEvent{{Type: EventTypeFileRemoved, Path: rel}}
	default:
		// Chmod only.
		return nil
	}
}

func (fw *FileWatcher) replayDir(ctx context.Context, dir string) []ChangeEvent {
	if err := fw.AddRecursive(dir); err != nil {
		fw.logger.Warn(ctx, err, "Failed to watch new directory", "path", dir)
	}

	var events []ChangeEvent
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, ok := fw.relevant(path)
		if !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		switch {
		case d.IsDir():
			events = append(events, newEvent(EventTypeDirAdded, rel, info))
		case d.Type().IsRegular():
			events = append(events, newEvent(EventTypeFileAdded, rel, info))
		}
		return nil
	})
	if err != nil {
		fw.logger.Warn(ctx, err, "Failed to scan new directory", "path", dir)
	}
	return events
}

// relevant maps an absolute event path to a SourcePath and applies the
// exclusion set and every registered filter.
func (fw *FileWatcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(fw.root, name)
	if err != nil {
		return "", false
	}
	rel = layout.Normalize(rel)
	if rel == "" || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if fw.exclude.ExcludesPath(rel) {
		return "", false
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(rel) {
			return "", false
		}
	}
	return rel, true
}

func newEvent(eventType EventType, rel string, info os.FileInfo) ChangeEvent {
	return ChangeEvent{
		Type:    eventType,
		Path:    rel,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
}
