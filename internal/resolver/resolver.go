// Package resolver implements the chained module-resolution protocol.
//
// A load request is offered to every hook attached to a Chain, in attachment
// order. Hooks share one Claim per request. The first hook that sets the
// claim wins; the Claim itself refuses a second resolution, so a hook that
// forgets to check Resolved cannot overwrite an earlier result.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAlreadyResolved is returned by Claim.Set when the request was
	// already resolved by an earlier hook.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrUnresolved is returned by Chain.Require when no hook claimed the request.
	ErrUnresolved = errors.New("request not resolved")
)

// Hook inspects a request and may resolve it through the claim.
// A returned error aborts the load request.
type Hook func(ctx context.Context, request string, claim *Claim) error

// Claim is the per-request resolution record shared by all hooks.
type Claim struct {
	request  string
	resolved bool
	path     string
	exports  any
}

// NewClaim creates an unresolved claim for request.
func NewClaim(request string) *Claim {
	return &Claim{request: request}
}

// Request returns the module identifier being resolved.
func (c *Claim) Request() string { return c.request }

// Resolved reports whether a hook already claimed the request.
func (c *Claim) Resolved() bool { return c.resolved }

// Path returns the absolute path of the resolved module.
func (c *Claim) Path() string { return c.path }

// Exports returns the resolved module's exports.
func (c *Claim) Exports() any { return c.exports }

// Set resolves the request. It fails if the claim is already resolved.
func (c *Claim) Set(path string, exports any) error {
	if c.resolved {
		return fmt.Errorf("%s: %w (by %s)", c.request, ErrAlreadyResolved, c.path)
	}
	c.resolved = true
	c.path = path
	c.exports = exports
	return nil
}

// Chain is an ordered list of resolution hooks. It is safe for concurrent use.
type Chain struct {
	mu    sync.RWMutex
	hooks []*entry
}

type entry struct {
	hook Hook
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

var (
	shared     *Chain
	sharedOnce sync.Once
)

// Load returns the process-wide chain. Engines attach to it by default so
// that independently configured engines can resolve each other.
func Load() *Chain {
	sharedOnce.Do(func() {
		shared = NewChain()
	})
	return shared
}

// On appends a hook to the chain and returns a function detaching it.
func (c *Chain) On(hook Hook) (off func()) {
	e := &entry{hook: hook}
	c.mu.Lock()
	c.hooks = append(c.hooks, e)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, h := range c.hooks {
			if h == e {
				c.hooks = append(c.hooks[:i:i], c.hooks[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of attached hooks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

// Resolve offers request to every hook in order and returns the shared claim.
// Every hook runs, even after the claim is resolved. The first hook error
// aborts the request.
func (c *Chain) Resolve(ctx context.Context, request string) (*Claim, error) {
	c.mu.RLock()
	hooks := make([]*entry, len(c.hooks))
	copy(hooks, c.hooks)
	c.mu.RUnlock()

	claim := NewClaim(request)
	for _, e := range hooks {
		if err := ctx.Err(); err != nil {
			return claim, err
		}
		if err := e.hook(ctx, request, claim); err != nil {
			return claim, err
		}
	}
	return claim, nil
}

// Require resolves request and returns its exports, failing with
// ErrUnresolved when no hook claimed it.
func (c *Chain) Require(ctx context.Context, request string) (any, error) {
	claim, err := c.Resolve(ctx, request)
	if err != nil {
		return nil, err
	}
	if !claim.Resolved() {
		return nil, fmt.Errorf("%s: %w", request, ErrUnresolved)
	}
	return claim.Exports(), nil
}
