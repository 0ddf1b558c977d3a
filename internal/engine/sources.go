package engine

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/agentic-research/reactus/internal/registry"
)

// Sources maps every virtual target to its source: a literal string, a file
// path, or a file discovered under a custom map directory. It is a pure
// function of the current configuration and is not cached.
func (e *Engine) Sources() map[string]string {
	return e.sourcesFrom(e.config())
}

// config returns a point-in-time copy of the configuration.
func (e *Engine) config() *registry.Registry {
	return registry.New(e.reg.Data())
}

func (e *Engine) sourcesFrom(conf *registry.Registry) map[string]string {
	sources := map[string]string{}

	label := conf.String("label")
	tmpl := conf.Strings("path")

	sources[Expand(tmpl["entry"], Vars{Label: label})] = conf.String("source", "entry")
	sources[Expand(tmpl["router"], Vars{Label: label})] = conf.String("source", "router")

	for p, view := range conf.Views() {
		sources[viewTarget(tmpl, label, p)] = view.View
	}

	for name, source := range conf.Strings("components") {
		sources[Expand(tmpl["component"], Vars{Label: label, Name: name})] = source
	}

	// Custom entries go last so they can override generated targets.
	custom := conf.Strings("map")
	for _, target := range conf.Keys("map") {
		source, ok := custom[target]
		if !ok {
			continue
		}
		info, err := os.Stat(source)
		if err != nil {
			e.logger.Warn("custom map source missing, skipping", "target", target, "source", source)
			continue
		}

		if !info.IsDir() {
			sources[target] = source
			continue
		}

		// source /foo/bar/zoo, file /foo/bar/zoo/bam.js -> target/bam.js
		err = walk(source, func(file string) error {
			rel, err := filepath.Rel(source, file)
			if err != nil {
				return err
			}
			sources[path.Join(target, filepath.ToSlash(rel))] = file
			return nil
		})
		if err != nil {
			e.logger.Warn("custom map directory walk failed", "target", target, "source", source, "error", err)
		}
	}

	return sources
}

// WatchPaths lists the on-disk paths the materialized files depend on:
// file-backed sources, the transform presets and custom map directories.
// Paths that do not exist are left out.
func (e *Engine) WatchPaths() []string {
	conf := e.config()
	seen := map[string]struct{}{}

	add := func(p string) {
		if p == "" {
			return
		}
		if _, err := os.Stat(p); err != nil {
			return
		}
		seen[filepath.Clean(p)] = struct{}{}
	}

	add(conf.String("source", "transform"))
	add(conf.String("source", "entry"))
	add(conf.String("source", "router"))
	for _, view := range conf.Views() {
		add(view.View)
	}
	for _, source := range conf.Strings("components") {
		add(source)
	}
	for _, source := range conf.Strings("map") {
		add(source)
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func viewTarget(tmpl map[string]string, label, p string) string {
	return Expand(tmpl["view"], Vars{Label: label, Path: p})
}

// walk calls fn for every non-directory entry under dir.
func walk(dir string, fn func(file string) error) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return fn(p)
	})
}
