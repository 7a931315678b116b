// Package cmd provides the command-line interface for labsite.
//
// Configuration System:
//
//	Values are resolved with the following precedence:
//	1. Command-line flags (--config, --log-level, ...) - highest priority
//	2. LABSITE_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (LABSITE_OUTPUT_ROOT, ...)
//	4. Configuration file (.labsite.yml) - lowest priority
//
// A .env file in the working directory is loaded before any of the above, so
// LABSITE_* variables can live there.
//
// Environment Variables:
//
//	LABSITE_CONFIG_FILE: Path to custom configuration file
//	LABSITE_SOURCE_ROOT: Override the source root
//	LABSITE_OUTPUT_ROOT: Override the output root
//	LABSITE_PREVIEW_COMMAND: Run an external preview server
//	And every other key following the LABSITE_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/labsite/internal/config"
	"github.com/conneroisu/labsite/internal/logging"
)

var (
	cfgFile   string
	buildOnly bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "labsite",
	Short: "Incremental static-site builder for lab work pages",
	Long: `labsite renders a source tree of templates, task pages and assets into a
static output tree, then watches the sources and rebuilds only what changed.

Task groups are directories named with the group prefix (labwork_ by default).
Every page inside a group is rendered through the task base template with a
navigation menu covering all groups and prev/next links within its group.

Quick Start:
  labsite                  Build, watch and preview
  labsite --build          Build once and exit
  labsite groups           Show the task navigation model
  labsite version          Show version information`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and runs it with a
// context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	AddStandardFlags(rootCmd, "global")
	rootCmd.Flags().BoolVar(&buildOnly, "build", false, "build once and exit instead of watching")
}

// initConfig loads .env, selects the config file and enables LABSITE_*
// environment overrides on the global viper instance.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring unreadable .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LABSITE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".labsite")
	}

	viper.SetEnvPrefix("LABSITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing default file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadRuntime loads the validated configuration and builds the logger it
// describes.
func loadRuntime() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	loggerConfig := logging.DefaultConfig()
	loggerConfig.Level = level
	loggerConfig.Format = cfg.Format
	loggerConfig.Colors = isTerminal(os.Stdout)
	return logging.NewLogger(loggerConfig), nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	return runSite(cmd.Context(), cfg, logger, buildOnly)
}
