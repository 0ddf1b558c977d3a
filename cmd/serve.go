package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/reactus/internal/engine"
	"github.com/agentic-research/reactus/internal/graph"
	"github.com/agentic-research/reactus/internal/nfsmount"
	"github.com/agentic-research/reactus/internal/watch"
)

var (
	serveAddr  string
	serveMount string
	noWatch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the overlay read-only over NFSv3",
	Long: `Serve the overlay read-only over NFSv3. With --mount the export is
mounted at the given directory (requires sudo). Source files are watched
and the overlay is rebuilt when they change, unless --no-watch is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer e.Detach()

		srv, err := nfsmount.NewServer(nfsmount.NewOverlayFS(graph.NewHotSwapGraph(e)), serveAddr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Serving %s over NFS on port %d\n", e.Label(), srv.Port())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
		g.Go(func() error {
			err := <-srv.Done()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("nfs server stopped: %w", err)
		})
		if !noWatch {
			if err := runWatcher(ctx, g, e); err != nil {
				stop()
				_ = g.Wait()
				return err
			}
		}

		if serveMount != "" {
			if err := nfsmount.Mount(srv.Port(), serveMount); err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mounted at %s\n", serveMount)
			defer func() {
				if err := nfsmount.Unmount(serveMount); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}()
		}

		return g.Wait()
	},
}

// newWatcher watches every on-disk path the engine's files depend on.
func newWatcher(e *engine.Engine) (*watch.Watcher, error) {
	w, err := watch.New(e, watch.DefaultDelay, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range e.WatchPaths() {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

// runWatcher watches in the background until ctx is done.
func runWatcher(ctx context.Context, g *errgroup.Group, e *engine.Engine) error {
	w, err := newWatcher(e)
	if err != nil {
		return err
	}
	g.Go(func() error { return w.Run(ctx) })
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:0", "NFS listen address")
	serveCmd.Flags().StringVarP(&serveMount, "mount", "m", "", "Mount the export at this directory")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch source files")
	rootCmd.AddCommand(serveCmd)
}
