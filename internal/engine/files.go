package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/agentic-research/reactus/internal/registry"
)

// Snapshot is a fully materialized view of the virtual files.
// It is immutable once published; callers must not modify its maps.
type Snapshot struct {
	// Generation counts snapshot builds over the engine's lifetime.
	Generation uint64
	// Files maps target to content.
	Files map[string][]byte
	// Origins maps target to the originating file path; literal and
	// synthesized targets map to themselves.
	Origins map[string]string
	// Built is the time the snapshot was materialized.
	Built time.Time
}

// Files returns the materialized target -> content mapping, building it if
// the cache is absent.
func (e *Engine) Files() (map[string][]byte, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Files, nil
}

// Snapshot returns the cached snapshot, building it if the cache is absent.
func (e *Engine) Snapshot() (*Snapshot, error) {
	if snap := e.files.Load(); snap != nil {
		return snap, nil
	}

	e.buildMu.Lock()
	defer e.buildMu.Unlock()
	if snap := e.files.Load(); snap != nil {
		return snap, nil
	}

	e.cacheMu.Lock()
	epoch := e.epoch
	e.cacheMu.Unlock()

	snap, err := e.build()
	if err != nil {
		return nil, err
	}

	// A mutation during the build makes this snapshot stale; hand it to
	// the caller but leave the cache absent.
	e.cacheMu.Lock()
	if e.epoch == epoch {
		e.files.Store(snap)
	}
	e.cacheMu.Unlock()
	return snap, nil
}

// Invalidate drops the cached snapshot. The next read rebuilds from scratch.
func (e *Engine) Invalidate() {
	e.cacheMu.Lock()
	e.epoch++
	e.files.Store(nil)
	e.cacheMu.Unlock()
}

func (e *Engine) build() (*Snapshot, error) {
	conf := e.config()
	sources := e.sourcesFrom(conf)

	files := make(map[string][]byte, len(sources)+1)
	origins := make(map[string]string, len(sources)+1)
	for target, source := range sources {
		content, isFile, err := materialize(source)
		if err != nil {
			return nil, fmt.Errorf("materialize %s: %w", target, err)
		}
		files[target] = content
		origins[target] = target
		if isFile {
			origins[target] = source
		}
	}

	target, manifest, err := routesManifest(conf)
	if err != nil {
		return nil, err
	}
	files[target] = manifest
	origins[target] = target

	snap := &Snapshot{
		Generation: e.builds.Add(1),
		Files:      files,
		Origins:    origins,
		Built:      time.Now(),
	}
	e.logger.Debug("virtual files materialized", "generation", snap.Generation, "files", len(files))
	return snap, nil
}

// readFile is replaced in tests to simulate unreadable sources.
var readFile = os.ReadFile

// materialize reads source if it names an existing regular file; any other
// value is the content itself. Symlinks are followed, so a link to a regular
// file is read rather than treated as literal content.
func materialize(source string) ([]byte, bool, error) {
	info, err := os.Stat(source)
	if err != nil || !info.Mode().IsRegular() {
		return []byte(source), false, nil
	}
	content, err := readFile(source)
	if err != nil {
		return nil, false, err
	}
	return content, true, nil
}

// routesManifest renders the route -> view target module from the views
// present in conf.
func routesManifest(conf *registry.Registry) (string, []byte, error) {
	label := conf.String("label")
	tmpl := conf.Strings("path")

	// Paths are visited in order so that a route shared by two views
	// deterministically maps to the last path.
	views := conf.Views()
	routes := make(map[string]string, len(views))
	for _, p := range conf.Keys("views") {
		view, ok := views[p]
		if !ok {
			continue
		}
		routes[view.Route] = viewTarget(tmpl, label, p)
	}

	var buf bytes.Buffer
	buf.WriteString("module.exports = ")
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(routes); err != nil {
		return "", nil, fmt.Errorf("encode routes: %w", err)
	}

	return Expand(tmpl["routes"], Vars{Label: label}), bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Reload drops the cached snapshot and the memoized transform presets, for
// when files on disk changed underneath the engine.
func (e *Engine) Reload() {
	e.presetsMu.Lock()
	e.presets = nil
	e.presetsMu.Unlock()
	e.Invalidate()
}
