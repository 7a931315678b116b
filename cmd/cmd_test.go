package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/labsite/internal/build"
	"github.com/conneroisu/labsite/internal/config"
	"github.com/conneroisu/labsite/internal/registry"
	"github.com/conneroisu/labsite/internal/testutils"
	"github.com/conneroisu/labsite/internal/version"
)

func sampleNavigation(t *testing.T) *registry.Navigation {
	t.Helper()
	_, src, dist := testutils.CreateTempProject(t)
	testutils.CreateSampleSite(t, src)

	nav, err := build.NewBuilder(testutils.CreateTestConfig(src, dist), nil).Resolver().Resolve(context.Background())
	require.NoError(t, err)
	return nav
}

func TestRunSiteBuildOnly(t *testing.T) {
	_, src, dist := testutils.CreateTempProject(t)
	testutils.CreateSampleSite(t, src)

	err := runSite(context.Background(), testutils.CreateTestConfig(src, dist), nil, true)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dist, "index.html"))
	assert.FileExists(t, filepath.Join(dist, "labwork_1", "task10.html"))
	assert.FileExists(t, filepath.Join(dist, "css", "site.css"))
}

func TestRunSiteBuildFailure(t *testing.T) {
	_, src, dist := testutils.CreateTempProject(t)
	testutils.WriteFile(t, src, "index.tmpl", "{{ if }}")

	err := runSite(context.Background(), testutils.CreateTestConfig(src, dist), nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
}

func TestRunSiteWatchesUntilCancelled(t *testing.T) {
	_, src, dist := testutils.CreateTempProject(t)
	testutils.CreateSampleSite(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runSite(ctx, testutils.CreateTestConfig(src, dist), nil, false)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dist, "index.html"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// The watcher registers after the build; retry the edit until it lands.
	require.Eventually(t, func() bool {
		testutils.WriteFile(t, src, "css/site.css", "body { margin: 1em }")
		content, err := os.ReadFile(filepath.Join(dist, "css", "site.css"))
		return err == nil && string(content) == "body { margin: 1em }"
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runSite did not return after cancellation")
	}
}

func TestWriteGroupsTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeGroups(&out, sampleNavigation(t), "table"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "GROUP"))
	assert.Contains(t, lines[2], "labwork_1/task1.php")
	assert.Contains(t, lines[3], "labwork_1/task2.php")
	assert.Contains(t, lines[4], "labwork_1/task10.php")
	assert.Contains(t, lines[5], "labwork_2/task1.php")
	assert.Equal(t, "2 groups, 4 tasks", lines[7])
}

func TestWriteGroupsStructured(t *testing.T) {
	nav := sampleNavigation(t)

	var jsonOut bytes.Buffer
	require.NoError(t, writeGroups(&jsonOut, nav, "json"))
	var fromJSON registry.Navigation
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &fromJSON))
	require.Len(t, fromJSON.Groups, 2)
	assert.Equal(t, "labwork_1", fromJSON.Groups[0].Name)
	assert.Len(t, fromJSON.Groups[0].Tasks, 3)

	var yamlOut bytes.Buffer
	require.NoError(t, writeGroups(&yamlOut, nav, "yaml"))
	var fromYAML registry.Navigation
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	require.Len(t, fromYAML.Groups, 2)
	assert.Equal(t, 10, fromYAML.Groups[0].Tasks[2].Ordinal)

	assert.Error(t, writeGroups(&bytes.Buffer{}, nav, "csv"))
}

func TestWriteVersion(t *testing.T) {
	info := version.Info{Version: "v1.0.0", Commit: "0123456789", GoVersion: "go1.24.4", Platform: "linux/amd64"}

	var out bytes.Buffer
	require.NoError(t, writeVersion(&out, info, "text", false))
	assert.Equal(t, "labsite v1.0.0 (0123456)\n", out.String())

	out.Reset()
	require.NoError(t, writeVersion(&out, info, "text", true))
	assert.Contains(t, out.String(), "Platform: linux/amd64")

	out.Reset()
	require.NoError(t, writeVersion(&out, info, "json", false))
	assert.Contains(t, out.String(), `"commit": "0123456789"`)

	assert.Error(t, writeVersion(&out, info, "xml", false))
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("yaml", []string{"table", "json", "yaml"}))
	err := ValidateFormat("csv", []string{"table", "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table, json")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = newLogger(config.LogConfig{Level: "loud", Format: "console"})
	assert.Error(t, err)
}

func TestLoadRuntimeFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	testutils.WriteFile(t, dir, "site.yml", "source:\n  root: pages\noutput:\n  root: public\ngroups:\n  unnumbered: skip\n")
	testutils.WriteFile(t, dir, ".env", "LABSITE_PREVIEW_PORT=4100\n")

	cfgFile = filepath.Join(dir, "site.yml")
	t.Cleanup(func() {
		cfgFile = ""
		os.Unsetenv("LABSITE_PREVIEW_PORT")
	})
	initConfig()

	cfg, logger, err := loadRuntime()
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, "pages", cfg.Source.Root)
	assert.Equal(t, "public", cfg.Output.Root)
	assert.Equal(t, config.UnnumberedSkip, cfg.Groups.Unnumbered)
	assert.Equal(t, 4100, cfg.Preview.Port)
	assert.Equal(t, ".tmpl", cfg.Templates.Extension)
}
