package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentic-research/reactus/internal/engine"
)

var showSources bool

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the materialized virtual files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Detach()

		snap, err := e.Snapshot()
		if err != nil {
			return err
		}
		return printFiles(cmd, snap)
	},
}

func printFiles(cmd *cobra.Command, snap *engine.Snapshot) error {
	targets := make([]string, 0, len(snap.Files))
	for target := range snap.Files {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	out := cmd.OutOrStdout()
	for _, target := range targets {
		if showSources && snap.Origins[target] != target {
			if _, err := fmt.Fprintf(out, "%s\t%d\t%s\n", target, len(snap.Files[target]), snap.Origins[target]); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "%s\t%d\n", target, len(snap.Files[target])); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	filesCmd.Flags().BoolVar(&showSources, "sources", false, "Also print the originating file of file-backed targets")
	rootCmd.AddCommand(filesCmd)
}
