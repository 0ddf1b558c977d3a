package engine

import (
	"context"
	"fmt"

	"github.com/agentic-research/reactus/api"
	"github.com/agentic-research/reactus/internal/registry"
)

// Component registers a global component and drops the file cache.
func (e *Engine) Component(name, source string) error {
	if err := e.reg.Component(name, source); err != nil {
		return fmt.Errorf("component %s: %w", name, err)
	}
	e.Invalidate()
	return nil
}

// View registers a view under its route-relative path and drops the file cache.
func (e *Engine) View(route, path, view string) error {
	if err := e.reg.View(route, path, view); err != nil {
		return fmt.Errorf("view %s: %w", route, err)
	}
	e.Invalidate()
	return nil
}

// RemoveView unregisters the view at path and drops the file cache.
func (e *Engine) RemoveView(path string) error {
	if err := e.reg.Remove("views", path); err != nil {
		return fmt.Errorf("remove view %s: %w", path, err)
	}
	e.Invalidate()
	return nil
}

// Use applies middleware:
//
//   - a registry.DataSource (another engine, a registry, *api.Config) or a
//     map[string]any is deep-merged into the configuration;
//   - a func(*Engine) or func(context.Context, *Engine) error runs in the
//     background and drops the cache once it returns successfully;
//   - anything else is ignored.
//
// Use does not wait for background middleware; see Wait.
func (e *Engine) Use(middleware any) {
	switch m := middleware.(type) {
	case nil:
	case registry.DataSource:
		e.merge(m.Data())
	case api.Config:
		e.merge(m.Data())
	case map[string]any:
		e.merge(m)
	case func(*Engine):
		e.async(func(context.Context, *Engine) error {
			m(e)
			return nil
		})
	case func(context.Context, *Engine) error:
		e.async(m)
	default:
		e.logger.Debug("ignoring middleware", "type", fmt.Sprintf("%T", middleware))
	}
}

// Wait blocks until all background middleware has returned.
func (e *Engine) Wait() {
	e.pending.Wait()
}

func (e *Engine) merge(data map[string]any) {
	e.reg.Merge(data)
	e.Invalidate()
}

func (e *Engine) async(fn func(context.Context, *Engine) error) {
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		if err := fn(context.Background(), e); err != nil {
			e.logger.Warn("middleware failed", "error", err)
			return
		}
		e.Invalidate()
	}()
}
