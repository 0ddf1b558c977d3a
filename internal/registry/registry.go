// Package registry is the key/value store backing a virtual engine's
// configuration. Data is held as generic JSON-like values so that arbitrary
// configuration objects can be deep-merged into it. Keys are addressed with
// JSONPath child expressions.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/reactus/api"
)

var ErrNotFound = errors.New("key not found")

// DataSource is anything exposing registry data, e.g. another Registry or
// an engine built on one.
type DataSource interface {
	Data() map[string]any
}

// Registry holds configuration data. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates a registry seeded with a deep copy of data.
func New(data map[string]any) *Registry {
	r := &Registry{data: map[string]any{}}
	if data != nil {
		mergeInto(r.data, data, true)
	}
	return r
}

// Data returns a deep copy of the registry contents.
func (r *Registry) Data() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.data).(map[string]any)
}

// Get returns the value stored under the key path, or nil.
// With no keys it returns a copy of the whole data set.
func (r *Registry) Get(keys ...string) any {
	if len(keys) == 0 {
		return r.Data()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(expr(keys).First(r.data))
}

// Has reports whether a non-nil value is stored under the key path.
func (r *Registry) Has(keys ...string) bool {
	if len(keys) == 0 {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return expr(keys).First(r.data) != nil
}

// Set stores value under the key path, creating intermediate maps.
func (r *Registry) Set(value any, keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("set: empty key path")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := expr(keys).Set(r.data, clone(normalize(value))); err != nil {
		return fmt.Errorf("set %v: %w", keys, err)
	}
	return nil
}

// Remove deletes the value under the key path.
func (r *Registry) Remove(keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("remove: empty key path")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	parent, ok := lookup(r.data, keys[:len(keys)-1]).(map[string]any)
	if !ok {
		return fmt.Errorf("remove %v: %w", keys, ErrNotFound)
	}
	last := keys[len(keys)-1]
	if _, ok := parent[last]; !ok {
		return fmt.Errorf("remove %v: %w", keys, ErrNotFound)
	}
	delete(parent, last)
	return nil
}

// Merge deep-merges src into the registry. Values from src win.
func (r *Registry) Merge(src map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mergeInto(r.data, src, true)
}

// MergeDefaults deep-merges src into the registry, keeping existing values.
func (r *Registry) MergeDefaults(src map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mergeInto(r.data, src, false)
}

// View registers a view under its route-relative path.
func (r *Registry) View(route, path, view string) error {
	return r.Set(map[string]any{"route": route, "view": view}, "views", path)
}

// Component registers a global component.
func (r *Registry) Component(name, source string) error {
	return r.Set(source, "components", name)
}

// String returns the string under the key path, or "".
func (r *Registry) String(keys ...string) string {
	s, _ := r.Get(keys...).(string)
	return s
}

// Strings returns the string-valued entries of the map under the key path.
func (r *Registry) Strings(keys ...string) map[string]string {
	m, _ := r.Get(keys...).(map[string]any)
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Views returns the registered views keyed by route-relative path.
func (r *Registry) Views() map[string]api.View {
	m, _ := r.Get("views").(map[string]any)
	out := make(map[string]api.View, len(m))
	for path, v := range m {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		route, _ := entry["route"].(string)
		view, _ := entry["view"].(string)
		out[path] = api.View{Route: route, View: view}
	}
	return out
}

// Keys returns the sorted keys of the map under the key path.
func (r *Registry) Keys(keys ...string) []string {
	m, _ := r.Get(keys...).(map[string]any)
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func expr(keys []string) jp.Expr {
	x := jp.C(keys[0])
	for _, k := range keys[1:] {
		x = x.C(k)
	}
	return x
}

func lookup(data map[string]any, keys []string) any {
	var cur any = data
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// mergeInto deep-merges src into dst. Nested maps merge recursively; any
// other value replaces (overwrite) or fills (no overwrite) the destination.
func mergeInto(dst, src map[string]any, overwrite bool) {
	for k, v := range src {
		v = normalize(v)
		if sm, ok := v.(map[string]any); ok {
			if dm, ok := dst[k].(map[string]any); ok {
				mergeInto(dm, sm, overwrite)
				continue
			}
			if _, exists := dst[k]; exists && !overwrite {
				continue
			}
			fresh := map[string]any{}
			mergeInto(fresh, sm, true)
			dst[k] = fresh
			continue
		}
		if _, exists := dst[k]; exists && !overwrite {
			continue
		}
		dst[k] = clone(v)
	}
}

// normalize converts typed maps into the generic form used by the registry.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case map[string]api.View:
		out := make(map[string]any, len(t))
		for k, view := range t {
			out[k] = map[string]any{"route": view.Route, "view": view.View}
		}
		return out
	case api.View:
		return map[string]any{"route": t.Route, "view": t.View}
	default:
		return v
	}
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = clone(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = clone(c)
		}
		return out
	default:
		return v
	}
}
