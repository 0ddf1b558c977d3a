package engine

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/agentic-research/reactus/internal/resolver"
)

// ResolveFile is the resolution hook for virtual files. It claims requests
// whose namespaced form is a materialized target, transforms the content
// and instantiates it as a module. Transform and load failures abort the
// request.
func (e *Engine) ResolveFile(ctx context.Context, request string, claim *resolver.Claim) error {
	if claim.Resolved() || outside(request) {
		return nil
	}

	target := Namespace + "/" + request
	snap, err := e.Snapshot()
	if err != nil {
		if !e.owns(target) {
			return nil
		}
		return fmt.Errorf("resolve %s: %w", request, err)
	}
	content, ok := snap.Files[target]
	if !ok {
		return nil
	}

	code, err := e.Transform(ctx, target, content)
	if err != nil {
		return err
	}

	exports, err := e.loader.Load(code, snap.Origins[target])
	if err != nil {
		return fmt.Errorf("load %s: %w", target, err)
	}

	e.logger.Debug("resolved virtual module", "request", request, "origin", snap.Origins[target])
	return claim.Set(e.modulePath(request), exports)
}

// Transform runs content through the transformer with the current presets.
func (e *Engine) Transform(ctx context.Context, target string, content []byte) ([]byte, error) {
	presets, err := e.Presets()
	if err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	code, err := e.transformer.Transform(ctx, content, target, presets)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", target, err)
	}
	return code, nil
}

// ResolveEngine resolves <label>/engine/<name> (optionally with a file
// extension) to the engine itself. It only matters for named engines.
func (e *Engine) ResolveEngine(ctx context.Context, request string, claim *resolver.Claim) error {
	if claim.Resolved() || outside(request) {
		return nil
	}
	name := e.Name()
	if name == "" {
		return nil
	}

	// looking for something like reactus/engine/web or reactus/engine/web.js
	id := path.Join(e.Label(), "engine", name)
	if !matchesIdentity(request, id) {
		return nil
	}

	e.logger.Debug("resolved named engine", "request", request, "name", name)
	return claim.Set(e.modulePath(request), e)
}

// outside reports whether request is absolute or relative, i.e. not a bare
// module identifier this engine could own.
// owns reports whether target is one of the engine's targets, without
// reading any source.
func (e *Engine) owns(target string) bool {
	conf := e.config()
	if _, ok := e.sourcesFrom(conf)[target]; ok {
		return true
	}
	return target == Expand(conf.Strings("path")["routes"], Vars{Label: conf.String("label")})
}

func outside(request string) bool {
	return request == "" || strings.HasPrefix(request, "/") || strings.HasPrefix(request, ".")
}

func matchesIdentity(request, id string) bool {
	if request == id {
		return true
	}
	rest, ok := strings.CutPrefix(request, id)
	return ok && strings.HasPrefix(rest, ".") && !strings.Contains(rest, "/")
}
