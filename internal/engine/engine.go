// Package engine implements the virtual module overlay: generated entry,
// router, view, component and route-manifest modules that a module loader
// consumes as if they were files under node_modules/<label>/.
package engine

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/agentic-research/reactus/api"
	"github.com/agentic-research/reactus/internal/loader"
	"github.com/agentic-research/reactus/internal/registry"
	"github.com/agentic-research/reactus/internal/resolver"
	"github.com/agentic-research/reactus/internal/transform"
)

const (
	// Namespace is the root-relative prefix every resolvable target lives under.
	Namespace = "node_modules"
	// DefaultLabel white-labels the namespace when none is configured.
	DefaultLabel = "reactus"
	// PresetsFile is the default transform preset file, relative to the root.
	PresetsFile = ".reactusrc.hcl"
)

var (
	//go:embed client/entry.js
	entrySource string
	//go:embed client/Router.jsx
	routerSource string
)

// Engine is a virtual file registry wired into a resolution chain.
type Engine struct {
	reg         *registry.Registry
	chain       *resolver.Chain
	root        string
	logger      *slog.Logger
	transformer transform.Transformer
	loader      loader.Loader

	// cache cell: nil means absent. cacheMu orders publication against
	// invalidation; reads are lock-free.
	files   atomic.Pointer[Snapshot]
	cacheMu sync.Mutex
	epoch   uint64
	buildMu sync.Mutex
	builds  atomic.Uint64

	presetsMu sync.Mutex
	presets   *cachedPresets

	pending sync.WaitGroup
	detach  []func()
}

type cachedPresets struct {
	path  string
	value transform.Presets
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithResolver attaches the engine to chain instead of the process-wide one.
func WithResolver(chain *resolver.Chain) Option {
	return func(e *Engine) { e.chain = chain }
}

// WithRoot sets the project root that holds the virtual namespace.
func WithRoot(dir string) Option {
	return func(e *Engine) { e.root = dir }
}

// WithTransformer replaces the code transformation backend.
func WithTransformer(t transform.Transformer) Option {
	return func(e *Engine) { e.transformer = t }
}

// WithLoader replaces the module instantiation backend.
func WithLoader(l loader.Loader) Option {
	return func(e *Engine) { e.loader = l }
}

// New creates an engine from cfg merged over the defaults and attaches its
// resolution hooks.
func New(cfg *api.Config, opts ...Option) *Engine {
	e := &Engine{
		reg:         registry.New(cfg.Data()),
		logger:      slog.Default(),
		transformer: transform.New(),
		loader:      loader.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.chain == nil {
		e.chain = resolver.Load()
	}
	if e.root == "" {
		if wd, err := os.Getwd(); err == nil {
			e.root = wd
		} else {
			e.root = "."
		}
	}

	e.reg.MergeDefaults(e.defaults())

	// Well-known identities go ahead of file-backed resolution.
	if e.reg.Has("name") {
		e.detach = append(e.detach, e.chain.On(e.ResolveEngine))
	}
	e.detach = append(e.detach, e.chain.On(e.ResolveFile))
	return e
}

func (e *Engine) defaults() map[string]any {
	return map[string]any{
		"label": DefaultLabel,
		"path": map[string]any{
			"component": "node_modules/{LABEL}/components/{NAME}.jsx",
			"entry":     "node_modules/{LABEL}/entry.js",
			"router":    "node_modules/{LABEL}/Router.jsx",
			"routes":    "node_modules/{LABEL}/routes.js",
			"view":      "node_modules/{LABEL}/views/{PATH}.jsx",
		},
		"source": map[string]any{
			"transform": filepath.Join(e.root, PresetsFile),
			"entry":     entrySource,
			"router":    routerSource,
		},
		"views":      map[string]any{},
		"components": map[string]any{},
		"map":        map[string]any{},
	}
}

// Data returns a copy of the backing configuration. It lets an engine be
// passed to another engine's Use.
func (e *Engine) Data() map[string]any { return e.reg.Data() }

// Registry returns the backing configuration store. Writing to it directly
// bypasses cache invalidation; call Invalidate afterwards.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Resolver returns the chain the engine is attached to.
func (e *Engine) Resolver() *resolver.Chain { return e.chain }

// Root returns the project root holding the virtual namespace.
func (e *Engine) Root() string { return e.root }

// Label returns the configured label.
func (e *Engine) Label() string { return e.reg.String("label") }

// Name returns the engine identity, or "".
func (e *Engine) Name() string { return e.reg.String("name") }

// Require resolves request through the engine's chain.
func (e *Engine) Require(ctx context.Context, request string) (any, error) {
	return e.chain.Require(ctx, request)
}

// Detach removes the engine's hooks from its chain.
func (e *Engine) Detach() {
	for _, off := range e.detach {
		off()
	}
	e.detach = nil
}

// Presets returns the transform presets, loading them on first use and
// again whenever source.transform changes.
func (e *Engine) Presets() (transform.Presets, error) {
	path := e.reg.String("source", "transform")

	e.presetsMu.Lock()
	defer e.presetsMu.Unlock()
	if e.presets != nil && e.presets.path == path {
		return e.presets.value, nil
	}
	p, err := transform.LoadPresets(path)
	if err != nil {
		return p, err
	}
	e.presets = &cachedPresets{path: path, value: p}
	return p, nil
}

// modulePath is the synthetic absolute path reported for a resolved request.
func (e *Engine) modulePath(request string) string {
	return filepath.Join(e.root, Namespace, filepath.FromSlash(request))
}
