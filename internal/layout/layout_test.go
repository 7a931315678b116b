package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout() *Layout {
	return &Layout{
		SourceRoot:     "src",
		OutputRoot:     "dist",
		TemplateExt:    ".tmpl",
		FragmentSuffix: ".partial.tmpl",
		OutputExt:      ".html",
		TaskBase:       "task.partial.tmpl",
		GroupPrefix:    "labwork_",
		PageExt:        ".php",
	}
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"./css/site.css", "css/site.css"},
		{"/css/site.css", "css/site.css"},
		{"css//site.css", "css/site.css"},
		{".", ""},
		{"labwork_3/", "labwork_3"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.in))
		})
	}
}

func TestSourceRel(t *testing.T) {
	l := testLayout()

	rel, err := l.SourceRel(filepath.Join("src", "labwork_3", "task5.php"))
	require.NoError(t, err)
	assert.Equal(t, "labwork_3/task5.php", rel)

	_, err = l.SourceRel(filepath.Join("other", "x.css"))
	assert.Error(t, err)
}

func TestGroupMembership(t *testing.T) {
	l := testLayout()

	testCases := []struct {
		rel   string
		group string
		in    bool
	}{
		{"labwork_3/task5.php", "labwork_3", true},
		{"labwork_3/img/diagram.png", "labwork_3", true},
		{"labwork_3", "", false},
		{"labwork_notes", "", false},
		{"labwork_notes.txt", "", false},
		{"labwork_", "", false},
		{"css/labwork_3/x.css", "", false},
		{"index.tmpl", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.rel, func(t *testing.T) {
			group, ok := l.GroupOf(tc.rel)
			assert.Equal(t, tc.in, ok)
			assert.Equal(t, tc.group, group)
			assert.Equal(t, tc.in, l.InGroup(tc.rel))
		})
	}
}

func TestFileKinds(t *testing.T) {
	l := testLayout()

	assert.True(t, l.IsPage("labwork_3/task5.php"))
	assert.False(t, l.IsPage("labwork_3/sub/task5.php"))
	assert.False(t, l.IsPage("labwork_3/notes.txt"))
	assert.False(t, l.IsPage("task5.php"))

	assert.True(t, l.IsTemplate("index.tmpl"))
	assert.True(t, l.IsTemplate("partials/head.partial.tmpl"))
	assert.True(t, l.IsFragment("partials/head.partial.tmpl"))
	assert.False(t, l.IsFragment("index.tmpl"))

	assert.True(t, l.IsRenderable("index.tmpl"))
	assert.True(t, l.IsRenderable("docs/about.tmpl"))
	assert.False(t, l.IsRenderable("task.partial.tmpl"))
	assert.False(t, l.IsRenderable("labwork_3/x.tmpl"))
	assert.False(t, l.IsRenderable("style.css"))
}

func TestOutputMapping(t *testing.T) {
	l := testLayout()

	assert.Equal(t, "index.html", l.TemplateOutput("index.tmpl"))
	assert.Equal(t, "labwork_3/task5.html", l.PageOutput("labwork_3/task5.php"))

	assert.Equal(t, "labwork_3/task5.html", l.MirrorOutput("labwork_3/task5.php"))
	assert.Equal(t, "docs/about.html", l.MirrorOutput("docs/about.tmpl"))
	assert.Equal(t, "css/site.css", l.MirrorOutput("css/site.css"))
	assert.Equal(t, "labwork_3/img/a.png", l.MirrorOutput("labwork_3/img/a.png"))

	assert.Equal(t, filepath.Join("dist", "css", "site.css"), l.OutputPath("css/site.css"))
	assert.Equal(t, filepath.Join("src", "css", "site.css"), l.SourcePath("css/site.css"))
}

func TestIsRootEntry(t *testing.T) {
	assert.True(t, IsRootEntry("labwork_notes"))
	assert.True(t, IsRootEntry("./index.tmpl"))
	assert.False(t, IsRootEntry("labwork_3/task5.php"))
	assert.False(t, IsRootEntry(""))
}
