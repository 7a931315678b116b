package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// StandardFlags holds flag values shared across commands.
type StandardFlags struct {
	Format string
}

// AddStandardFlags adds the named flag sets to cmd.
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "global":
			addGlobalFlags(cmd.PersistentFlags())
		case "output":
			cmd.Flags().StringVarP(&flags.Format, "format", "f", "table", "Output format (table|json|yaml)")
		}
	}

	return flags
}

// addGlobalFlags registers flags that override configuration keys and binds
// them to viper so they take precedence over files and environment.
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfgFile, "config", "", "config file (default is .labsite.yml, can also use LABSITE_CONFIG_FILE env var)")
	fs.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "console", "log format (console, text, json)")
	fs.String("source", "src", "source root")
	fs.String("output", "dist", "output root")

	bindFlag(fs, "log.level", "log-level")
	bindFlag(fs, "log.format", "log-format")
	bindFlag(fs, "source.root", "source")
	bindFlag(fs, "output.root", "output")
}

func bindFlag(fs *pflag.FlagSet, key, name string) {
	if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// ValidateFormat checks format against the supported output formats.
func ValidateFormat(format string, supported []string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
}
