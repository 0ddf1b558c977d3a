package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	reactusfs "github.com/agentic-research/reactus/internal/fs"
	"github.com/agentic-research/reactus/internal/graph"
)

var mountCmd = &cobra.Command{
	Use:   "mount [mountpoint]",
	Short: "Mount the overlay read-only through FUSE",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]

		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Detach()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)
		if !noWatch {
			if err := runWatcher(ctx, g, e); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Mounting %s at %s (using cgofuse)...\n", e.Label(), mountPoint)

		// Use -o uid=N,gid=N to ensure we own the mount (critical for fuse-t/NFS)
		opts := []string{
			"-o", fmt.Sprintf("uid=%d", os.Getuid()),
			"-o", fmt.Sprintf("gid=%d", os.Getgid()),
		}
		ok := reactusfs.Mount(graph.NewHotSwapGraph(e), mountPoint, opts)

		cancel()
		if err := g.Wait(); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("mount failed")
		}
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch source files")
	rootCmd.AddCommand(mountCmd)
}
