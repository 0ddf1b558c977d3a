package cmd

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/reactus/internal/engine"
	"github.com/agentic-research/reactus/internal/loader"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [request]",
	Short: "Resolve a module request through the overlay",
	Long: `Resolve a bare module request (e.g. reactus/routes.js) through the
resolution chain and print the resolved path and static exports.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Detach()

		claim, err := e.Resolver().Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !claim.Resolved() {
			return fmt.Errorf("%s: not in the virtual namespace", args[0])
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "path: %s\n", claim.Path()); err != nil {
			return err
		}
		_, err = fmt.Fprint(out, describe(claim.Exports()))
		return err
	},
}

func describe(exports any) string {
	switch m := exports.(type) {
	case *engine.Engine:
		return fmt.Sprintf("engine: %s\n", m.Name())
	case *loader.Module:
		s := fmt.Sprintf("origin: %s\n", m.Filename)
		if m.Exports != nil {
			s += "exports: " + oj.JSON(m.Exports, &ojg.Options{Indent: 2, Sort: true}) + "\n"
		}
		return s
	default:
		return fmt.Sprintf("exports: %T\n", exports)
	}
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
