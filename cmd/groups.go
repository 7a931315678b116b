package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/labsite/internal/build"
	"github.com/conneroisu/labsite/internal/registry"
)

var groupsFlags *StandardFlags

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"g"},
	Short:   "Show the task navigation model",
	Long: `Resolve every task group in the source tree and print the groups and their
tasks in navigation order, exactly as they appear in the rendered menus.

Examples:
  labsite groups              # Table output
  labsite groups -f json      # Output as JSON
  labsite groups -f yaml      # Output as YAML`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return ValidateFormat(groupsFlags.Format, []string{"table", "json", "yaml"})
	},
	RunE: runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
	groupsFlags = AddStandardFlags(groupsCmd, "output")
}

func runGroups(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	nav, err := build.NewBuilder(cfg, logger).Resolver().Resolve(cmd.Context())
	if err != nil {
		return err
	}

	return writeGroups(cmd.OutOrStdout(), nav, groupsFlags.Format)
}

func writeGroups(w io.Writer, nav *registry.Navigation, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(nav)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(nav)
	case "table":
		return writeGroupsTable(w, nav)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeGroupsTable(w io.Writer, nav *registry.Navigation) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tLABEL\tORDINAL\tTASK\tPATH")
	fmt.Fprintln(tw, "-----\t-----\t-------\t----\t----")

	for _, g := range nav.Groups {
		if len(g.Tasks) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\n", g.Name, g.Label)
			continue
		}
		for i, task := range g.Tasks {
			ordinal := "-"
			if task.Numbered {
				ordinal = strconv.Itoa(task.Ordinal)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", g.Name, g.Label, ordinal, i+1, task.Path)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d groups, %d tasks\n", len(nav.Groups), nav.TaskCount())
	return err
}
