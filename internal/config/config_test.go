package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteerrors "github.com/conneroisu/labsite/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Source.Root)
	assert.Equal(t, "dist", cfg.Output.Root)
	assert.Equal(t, []string{".git", "node_modules", ".DS_Store"}, cfg.Source.Exclude)
	assert.Empty(t, cfg.Source.ExcludeExtensions)
	assert.Equal(t, ".tmpl", cfg.Templates.Extension)
	assert.Equal(t, ".partial.tmpl", cfg.Templates.FragmentSuffix)
	assert.Equal(t, ".html", cfg.Templates.OutputExtension)
	assert.Equal(t, "task.partial.tmpl", cfg.Templates.TaskBase)
	assert.Equal(t, "labwork_", cfg.Groups.Prefix)
	assert.Equal(t, ".php", cfg.Groups.PageExtension)
	assert.Equal(t, UnnumberedZero, cfg.Groups.Unnumbered)
	assert.True(t, cfg.Preview.Enabled)
	assert.Equal(t, 4000, cfg.Preview.Port)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(v *viper.Viper)
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "custom roots",
			setup: func(v *viper.Viper) {
				v.Set("source.root", "./site/")
				v.Set("output.root", "public")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "site", cfg.Source.Root)
				assert.Equal(t, "public", cfg.Output.Root)
			},
		},
		{
			name: "comma separated excludes",
			setup: func(v *viper.Viper) {
				v.Set("source.exclude", "vendor, .git")
				v.Set("source.exclude_extensions", ".bak,.swp")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"vendor", ".git"}, cfg.Source.Exclude)
				assert.Equal(t, []string{".bak", ".swp"}, cfg.Source.ExcludeExtensions)
			},
		},
		{
			name: "skip policy is case insensitive",
			setup: func(v *viper.Viper) {
				v.Set("groups.unnumbered", "SKIP")
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, UnnumberedSkip, cfg.Groups.Unnumbered)
			},
		},
		{
			name: "output inside source",
			setup: func(v *viper.Viper) {
				v.Set("output.root", "src/dist")
			},
			expectError: true,
		},
		{
			name: "source inside output",
			setup: func(v *viper.Viper) {
				v.Set("source.root", "dist/src")
			},
			expectError: true,
		},
		{
			name: "output is working directory",
			setup: func(v *viper.Viper) {
				v.Set("output.root", ".")
			},
			expectError: true,
		},
		{
			name: "fragment suffix not a template",
			setup: func(v *viper.Viper) {
				v.Set("templates.fragment_suffix", ".inc")
			},
			expectError: true,
		},
		{
			name: "unknown unnumbered policy",
			setup: func(v *viper.Viper) {
				v.Set("groups.unnumbered", "drop")
			},
			expectError: true,
		},
		{
			name: "prefix with separator",
			setup: func(v *viper.Viper) {
				v.Set("groups.prefix", "labs/")
			},
			expectError: true,
		},
		{
			name: "port out of range",
			setup: func(v *viper.Viper) {
				v.Set("preview.port", 70000)
			},
			expectError: true,
		},
		{
			name: "invalid port type",
			setup: func(v *viper.Viper) {
				v.Set("preview.port", "not-a-port")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestOverlappingRootsIsConfigError(t *testing.T) {
	v := viper.New()
	v.Set("output.root", "src")

	_, err := LoadFrom(v)
	require.Error(t, err)

	var se *siteerrors.SiteError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, siteerrors.ErrorTypeConfig, se.Type)
}
