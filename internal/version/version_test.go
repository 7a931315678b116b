package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShort(t *testing.T) {
	testCases := []struct {
		name string
		info Info
		want string
	}{
		{"no commit", Info{Version: "v1.2.0", Commit: "unknown"}, "v1.2.0"},
		{"short commit", Info{Version: "dev", Commit: "abc"}, "dev"},
		{"commit", Info{Version: "v1.2.0", Commit: "0123456789abcdef"}, "v1.2.0 (0123456)"},
		{"dirty", Info{Version: "dev", Commit: "0123456789abcdef", Dirty: true}, "dev (0123456) (dirty)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.info.Short())
		})
	}
}

func TestDetailed(t *testing.T) {
	info := Info{
		Version:   "v0.3.0",
		Commit:    "deadbeef",
		BuildTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
	}

	assert.Equal(t,
		"Version: v0.3.0\nCommit: deadbeef\nBuilt: 2026-03-01T12:00:00Z\nGo: go1.24.4\nPlatform: linux/amd64",
		info.Detailed())

	info.Commit = "unknown"
	info.BuildTime = time.Time{}
	assert.Equal(t, "Version: v0.3.0\nGo: go1.24.4\nPlatform: linux/amd64", info.Detailed())
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2026, parseTime("2026-01-02T03:04:05Z").Year())
	assert.Equal(t, 5, parseTime("2026-01-02 03:04:05").Second())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
