package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/reactus/internal/engine"
)

var transformed bool

var catCmd = &cobra.Command{
	Use:   "cat [target]",
	Short: "Print the content of a virtual file",
	Long: `Print the content of a virtual file. The target may be given with or
without the node_modules/ prefix. With --transformed the content is run
through the configured transform presets first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Detach()

		files, err := e.Files()
		if err != nil {
			return err
		}

		target := args[0]
		if !strings.HasPrefix(target, engine.Namespace+"/") {
			target = engine.Namespace + "/" + strings.TrimPrefix(target, "/")
		}
		content, ok := files[target]
		if !ok {
			return fmt.Errorf("no virtual file %s", target)
		}

		if transformed {
			code, err := e.Transform(cmd.Context(), target, content)
			if err != nil {
				return err
			}
			content = code
		}

		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

func init() {
	catCmd.Flags().BoolVarP(&transformed, "transformed", "t", false, "Print the transformed content")
	rootCmd.AddCommand(catCmd)
}
