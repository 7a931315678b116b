package watcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/labsite/internal/registry"
)

// recordingActions records every call as "action:path". Unless unchanged
// is set, every successful call except MirrorDir counts as an output change.
type recordingActions struct {
	calls     []string
	err       error
	unchanged bool
	changes   uint64
}

func (r *recordingActions) record(call string) error {
	r.calls = append(r.calls, call)
	if r.err == nil && !r.unchanged && !strings.HasPrefix(call, "mirror:") {
		r.changes++
	}
	return r.err
}

func (r *recordingActions) Changes() uint64 {
	return r.changes
}

func (r *recordingActions) RebuildGroups(context.Context) (*registry.Navigation, error) {
	return registry.NewNavigation(nil), r.record("rebuild_groups")
}

func (r *recordingActions) RenderTemplate(_ context.Context, rel string) error {
	return r.record("render:" + rel)
}

func (r *recordingActions) CopyAsset(_ context.Context, rel string) error {
	return r.record("copy:" + rel)
}

func (r *recordingActions) RemoveOutput(_ context.Context, rel string) error {
	return r.record("remove:" + rel)
}

func (r *recordingActions) MirrorDir(_ context.Context, rel string) error {
	return r.record("mirror:" + rel)
}

func TestDispatcherHandle(t *testing.T) {
	testCases := []struct {
		name    string
		event   ChangeEvent
		calls   []string
		reloads int
	}{
		{
			name:    "group page added",
			event:   ChangeEvent{Type: EventTypeFileAdded, Path: "labwork_3/task9.php"},
			calls:   []string{"rebuild_groups"},
			reloads: 1,
		},
		{
			name:    "group page removed",
			event:   ChangeEvent{Type: EventTypeFileRemoved, Path: "labwork_3/task9.php"},
			calls:   []string{"remove:labwork_3/task9.php", "rebuild_groups"},
			reloads: 1,
		},
		{
			name:    "group directory added",
			event:   ChangeEvent{Type: EventTypeDirAdded, Path: "labwork_4"},
			calls:   []string{"rebuild_groups"},
			reloads: 1,
		},
		{
			name:    "root file named like a group changed",
			event:   ChangeEvent{Type: EventTypeFileChanged, Path: "labwork_notes"},
			calls:   []string{"copy:labwork_notes"},
			reloads: 1,
		},
		{
			name:    "group directory removed",
			event:   ChangeEvent{Type: EventTypeFileRemoved, Path: "labwork_4"},
			calls:   []string{"remove:labwork_4", "rebuild_groups"},
			reloads: 1,
		},
		{
			name:    "task base changed",
			event:   ChangeEvent{Type: EventTypeFileChanged, Path: "task.partial.tmpl"},
			calls:   []string{"rebuild_groups"},
			reloads: 1,
		},
		{
			name:  "fragment changed",
			event: ChangeEvent{Type: EventTypeFileChanged, Path: "partials/head.partial.tmpl"},
		},
		{
			name:    "template changed",
			event:   ChangeEvent{Type: EventTypeFileChanged, Path: "index.tmpl"},
			calls:   []string{"render:index.tmpl"},
			reloads: 1,
		},
		{
			name:    "template removed",
			event:   ChangeEvent{Type: EventTypeFileRemoved, Path: "about.tmpl"},
			calls:   []string{"remove:about.tmpl"},
			reloads: 1,
		},
		{
			name:    "asset added",
			event:   ChangeEvent{Type: EventTypeFileAdded, Path: "css/site.css"},
			calls:   []string{"copy:css/site.css"},
			reloads: 1,
		},
		{
			name:    "asset removed",
			event:   ChangeEvent{Type: EventTypeFileRemoved, Path: "css/site.css"},
			calls:   []string{"remove:css/site.css"},
			reloads: 1,
		},
		{
			name:  "directory added",
			event: ChangeEvent{Type: EventTypeDirAdded, Path: "fonts"},
			calls: []string{"mirror:fonts"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actions := &recordingActions{}
			d := NewDispatcher(testLayout(), actions, nil)

			reloads := 0
			d.OnReload(func(context.Context, ChangeEvent) { reloads++ })

			require.NoError(t, d.Handle(context.Background(), tc.event))
			assert.Equal(t, tc.calls, actions.calls)
			assert.Equal(t, tc.reloads, reloads)
		})
	}
}

func TestDispatcherErrorSkipsReload(t *testing.T) {
	boom := errors.New("boom")
	actions := &recordingActions{err: boom}
	d := NewDispatcher(testLayout(), actions, nil)

	reloads := 0
	d.OnReload(func(context.Context, ChangeEvent) { reloads++ })

	err := d.Handle(context.Background(), ChangeEvent{Type: EventTypeFileRemoved, Path: "labwork_1/task1.php"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"remove:labwork_1/task1.php"}, actions.calls, "rebuild is not attempted after a failed removal")
	assert.Zero(t, reloads)
}

func TestDispatcherSkipsReloadWhenOutputUnchanged(t *testing.T) {
	actions := &recordingActions{unchanged: true}
	d := NewDispatcher(testLayout(), actions, nil)

	reloads := 0
	d.OnReload(func(context.Context, ChangeEvent) { reloads++ })

	require.NoError(t, d.Handle(context.Background(), ChangeEvent{Type: EventTypeFileChanged, Path: "index.tmpl"}))
	require.NoError(t, d.Handle(context.Background(), ChangeEvent{Type: EventTypeFileChanged, Path: "labwork_1/task1.php"}))
	assert.Equal(t, []string{"render:index.tmpl", "rebuild_groups"}, actions.calls)
	assert.Zero(t, reloads)
}
