// Package cmd implements the reactus command line.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agentic-research/reactus/api"
	"github.com/agentic-research/reactus/internal/config"
	"github.com/agentic-research/reactus/internal/engine"
	"github.com/agentic-research/reactus/internal/resolver"
)

// DefaultConfigFile is looked up in the root when --config is not given.
const DefaultConfigFile = "reactus.hcl"

var (
	configPath string
	rootDir    string
	labelFlag  string
	nameFlag   string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to HCL configuration (default <root>/"+DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Project root holding the virtual namespace (default: working directory)")
	rootCmd.PersistentFlags().StringVarP(&labelFlag, "label", "l", "", "Override the namespace label")
	rootCmd.PersistentFlags().StringVarP(&nameFlag, "name", "n", "", "Override the engine name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "reactus",
	Short: "Reactus: virtual module overlay for generated entry, router and view modules",
	Long: `Reactus materializes generated modules (entry, router, views, components
and the route manifest) under node_modules/<label>/ without writing them
to disk, and exposes them to loaders, NFS and FUSE.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the configuration file and applies flag overrides. A
// missing default file yields an empty configuration; a missing explicit
// file is an error.
func loadConfig(root string) (*api.Config, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, DefaultConfigFile)
	}

	cfg := &api.Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if labelFlag != "" {
		cfg.Label = labelFlag
	}
	if nameFlag != "" {
		cfg.Name = nameFlag
	}
	return cfg, nil
}

// newEngine builds an engine from the flags on a private resolution chain.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	root := rootDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working dir: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}

	return engine.New(cfg,
		engine.WithRoot(root),
		engine.WithLogger(newLogger(cmd)),
		engine.WithResolver(resolver.NewChain()),
	), nil
}
