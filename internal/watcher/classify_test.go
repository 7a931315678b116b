package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/labsite/internal/layout"
	"github.com/conneroisu/labsite/internal/testutils"
)

func testLayout() *layout.Layout {
	return layout.New(testutils.CreateTestConfig("src", "dist"))
}

func TestClassify(t *testing.T) {
	l := testLayout()

	testCases := []struct {
		path     string
		expected Category
	}{
		{"labwork_3/task5.php", CategoryGroupChange},
		{"labwork_3/img/diagram.png", CategoryGroupChange},
		{"labwork_3", CategoryGenericAsset},
		{"labwork_notes", CategoryGenericAsset},
		{"labwork_3/layout.partial.tmpl", CategoryGroupChange},
		{"task.partial.tmpl", CategoryGroupChange},
		{"partials/head.partial.tmpl", CategoryTemplateFragment},
		{"footer.partial.tmpl", CategoryTemplateFragment},
		{"index.tmpl", CategoryTemplateRender},
		{"docs/guide.tmpl", CategoryTemplateRender},
		{"css/site.css", CategoryGenericAsset},
		{"labwork_notes.txt", CategoryGenericAsset},
		{"labwork_", CategoryGenericAsset},
		{"README", CategoryGenericAsset},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.path, l))
		})
	}
}

func TestClassifyEvent(t *testing.T) {
	l := testLayout()

	testCases := []struct {
		name     string
		event    ChangeEvent
		expected Category
	}{
		{"group directory added", ChangeEvent{Type: EventTypeDirAdded, Path: "labwork_4"}, CategoryGroupChange},
		{"root entry removed", ChangeEvent{Type: EventTypeFileRemoved, Path: "labwork_4"}, CategoryGroupChange},
		{"root file added", ChangeEvent{Type: EventTypeFileAdded, Path: "labwork_notes"}, CategoryGenericAsset},
		{"root file changed", ChangeEvent{Type: EventTypeFileChanged, Path: "labwork_notes"}, CategoryGenericAsset},
		{"nested directory added", ChangeEvent{Type: EventTypeDirAdded, Path: "labwork_3/img"}, CategoryGroupChange},
		{"plain directory added", ChangeEvent{Type: EventTypeDirAdded, Path: "fonts"}, CategoryGenericAsset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyEvent(tc.event, l))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "group_change", CategoryGroupChange.String())
	assert.Equal(t, "template_fragment", CategoryTemplateFragment.String())
	assert.Equal(t, "template_render", CategoryTemplateRender.String())
	assert.Equal(t, "generic_asset", CategoryGenericAsset.String())
	assert.Equal(t, "unknown", Category(42).String())
}
