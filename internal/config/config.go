// Package config provides configuration management for labsite using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration describes where sources live, where output goes, which
// naming conventions mark templates, fragments and task groups, and how the
// optional preview collaborator is started. Values are read from
// .labsite.yml, overridden by LABSITE_* environment variables, and validated
// before use.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	siteerrors "github.com/conneroisu/labsite/internal/errors"
)

// Unnumbered task policies.
const (
	UnnumberedZero = "zero"
	UnnumberedSkip = "skip"
)

type Config struct {
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Groups    GroupsConfig    `mapstructure:"groups" yaml:"groups"`
	Preview   PreviewConfig   `mapstructure:"preview" yaml:"preview"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type SourceConfig struct {
	Root              string   `mapstructure:"root" yaml:"root"`
	Exclude           []string `mapstructure:"exclude" yaml:"exclude"`
	ExcludeExtensions []string `mapstructure:"exclude_extensions" yaml:"exclude_extensions"`
}

type OutputConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

type TemplatesConfig struct {
	Extension       string `mapstructure:"extension" yaml:"extension"`
	FragmentSuffix  string `mapstructure:"fragment_suffix" yaml:"fragment_suffix"`
	OutputExtension string `mapstructure:"output_extension" yaml:"output_extension"`
	TaskBase        string `mapstructure:"task_base" yaml:"task_base"`
}

type GroupsConfig struct {
	Prefix        string `mapstructure:"prefix" yaml:"prefix"`
	PageExtension string `mapstructure:"page_extension" yaml:"page_extension"`
	Unnumbered    string `mapstructure:"unnumbered" yaml:"unnumbered"`
}

type PreviewConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Command string `mapstructure:"command" yaml:"command"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.root", "src")
	v.SetDefault("source.exclude", []string{".git", "node_modules", ".DS_Store"})
	v.SetDefault("source.exclude_extensions", []string{})
	v.SetDefault("output.root", "dist")
	v.SetDefault("templates.extension", ".tmpl")
	v.SetDefault("templates.fragment_suffix", ".partial.tmpl")
	v.SetDefault("templates.output_extension", ".html")
	v.SetDefault("templates.task_base", "task.partial.tmpl")
	v.SetDefault("groups.prefix", "labwork_")
	v.SetDefault("groups.page_extension", ".php")
	v.SetDefault("groups.unnumbered", UnnumberedZero)
	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.command", "")
	v.SetDefault("preview.host", "localhost")
	v.SetDefault("preview.port", 4000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Slices set through LABSITE_* variables arrive as a single string.
	if v.IsSet("source.exclude") {
		config.Source.Exclude = splitList(v.GetStringSlice("source.exclude"))
	}
	if v.IsSet("source.exclude_extensions") {
		config.Source.ExcludeExtensions = splitList(v.GetStringSlice("source.exclude_extensions"))
	}

	config.Source.Root = filepath.Clean(config.Source.Root)
	config.Output.Root = filepath.Clean(config.Output.Root)
	config.Groups.Unnumbered = strings.ToLower(config.Groups.Unnumbered)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateRoots(config.Source.Root, config.Output.Root); err != nil {
		return err
	}

	if err := validateTemplatesConfig(&config.Templates); err != nil {
		return fmt.Errorf("templates config: %w", err)
	}

	if err := validateGroupsConfig(&config.Groups); err != nil {
		return fmt.Errorf("groups config: %w", err)
	}

	if config.Preview.Port < 0 || config.Preview.Port > 65535 {
		return siteerrors.NewConfigError(siteerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("preview port %d is not in valid range 0-65535", config.Preview.Port))
	}

	return nil
}

// validateRoots rejects source and output roots that overlap: the output
// tree is rewritten freely and must never shadow the sources.
func validateRoots(source, output string) error {
	if output == "." {
		return siteerrors.NewConfigError(siteerrors.ErrCodeConfigInvalid, "output root must be a dedicated directory")
	}

	absSource, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve source root: %w", err)
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolve output root: %w", err)
	}

	if within(absSource, absOutput) || within(absOutput, absSource) {
		return siteerrors.NewConfigError(siteerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("source root %q and output root %q overlap", source, output))
	}

	return nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func validateTemplatesConfig(config *TemplatesConfig) error {
	if !strings.HasPrefix(config.Extension, ".") {
		return fmt.Errorf("extension %q must start with a dot", config.Extension)
	}
	if !strings.HasPrefix(config.OutputExtension, ".") {
		return fmt.Errorf("output_extension %q must start with a dot", config.OutputExtension)
	}
	if config.FragmentSuffix == "" || !strings.HasSuffix(config.FragmentSuffix, config.Extension) {
		return fmt.Errorf("fragment_suffix %q must end with the template extension %q",
			config.FragmentSuffix, config.Extension)
	}
	if config.TaskBase == "" {
		return fmt.Errorf("task_base is required")
	}
	if filepath.IsAbs(config.TaskBase) || strings.Contains(filepath.Clean(config.TaskBase), "..") {
		return fmt.Errorf("task_base must be relative to the source root: %s", config.TaskBase)
	}
	return nil
}

func validateGroupsConfig(config *GroupsConfig) error {
	if config.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.ContainsAny(config.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must not contain path separators", config.Prefix)
	}
	if !strings.HasPrefix(config.PageExtension, ".") {
		return fmt.Errorf("page_extension %q must start with a dot", config.PageExtension)
	}
	switch config.Unnumbered {
	case UnnumberedZero, UnnumberedSkip:
	default:
		return fmt.Errorf("unnumbered policy %q is not one of %q, %q",
			config.Unnumbered, UnnumberedZero, UnnumberedSkip)
	}
	return nil
}
