package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/labsite/internal/config"
)

// DefaultTaskBase is a minimal task page template exercising every
// injection point.
const DefaultTaskBase = `<!DOCTYPE html>
<html>
<head><title>{{ title }}</title></head>
<body>
{{ nav }}
<h1>{{ heading }}</h1>
<main>{{ content }}</main>
<footer>{{ prev }}{{ next }}</footer>
</body>
</html>
`

// CreateTempProject creates a project directory with empty src and the
// path of a dist directory that does not exist yet.
func CreateTempProject(t *testing.T) (projectDir, srcDir, distDir string) {
	t.Helper()
	projectDir = t.TempDir()
	srcDir = filepath.Join(projectDir, "src")
	distDir = filepath.Join(projectDir, "dist")
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	return projectDir, srcDir, distDir
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteFiles writes every rel -> content pair under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
}

// ReadFile returns the content of root/rel.
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// ModTime returns the modification time of root/rel.
func ModTime(t *testing.T, root, rel string) time.Time {
	t.Helper()
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return info.ModTime()
}

// CreateTestConfig returns the default configuration pointed at the given
// roots.
func CreateTestConfig(srcDir, distDir string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Root:    srcDir,
			Exclude: []string{".git", "node_modules", ".DS_Store"},
		},
		Output: config.OutputConfig{Root: distDir},
		Templates: config.TemplatesConfig{
			Extension:       ".tmpl",
			FragmentSuffix:  ".partial.tmpl",
			OutputExtension: ".html",
			TaskBase:        "task.partial.tmpl",
		},
		Groups: config.GroupsConfig{
			Prefix:        "labwork_",
			PageExtension: ".php",
			Unnumbered:    config.UnnumberedZero,
		},
		Preview: config.PreviewConfig{Host: "localhost", Port: 0},
		Log:     config.LogConfig{Level: "info", Format: "console"},
	}
}

// CreateSampleSite writes a small site: two top-level pages sharing a
// fragment, a stylesheet, a task base template and two task groups.
func CreateSampleSite(t *testing.T, srcDir string) {
	t.Helper()
	WriteFiles(t, srcDir, map[string]string{
		"index.tmpl":                 `{{template "partials/head.partial.tmpl"}}<h1>Home</h1>`,
		"about.tmpl":                 `{{template "partials/head.partial.tmpl"}}<h1>About</h1>`,
		"partials/head.partial.tmpl": `<meta charset="utf-8">`,
		"task.partial.tmpl":          DefaultTaskBase,
		"css/site.css":               "body { margin: 0 }",
		"labwork_1/task1.php":        "<p>one</p>",
		"labwork_1/task2.php":        "<p>two</p>",
		"labwork_1/task10.php":       "<p>ten</p>",
		"labwork_1/img/diagram.svg":  "<svg></svg>",
		"labwork_2/task1.php":        "<p>other</p>",
		"node_modules/ignored/x.js":  "ignored",
	})
}
