package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claimer resolves every request to path with exports.
func claimer(path string, exports any) Hook {
	return func(_ context.Context, _ string, claim *Claim) error {
		if claim.Resolved() {
			return nil
		}
		return claim.Set(path, exports)
	}
}

func TestClaimSetOnce(t *testing.T) {
	c := NewClaim("app/routes.js")
	assert.Equal(t, "app/routes.js", c.Request())
	assert.False(t, c.Resolved())

	require.NoError(t, c.Set("/p/a.js", 1))
	assert.True(t, c.Resolved())

	err := c.Set("/p/b.js", 2)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, "/p/a.js", c.Path())
	assert.Equal(t, 1, c.Exports())
}

func TestResolveFirstClaimWins(t *testing.T) {
	chain := NewChain()
	chain.On(claimer("/first", "a"))
	chain.On(claimer("/second", "b"))

	claim, err := chain.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, claim.Resolved())
	assert.Equal(t, "/first", claim.Path())
	assert.Equal(t, "a", claim.Exports())
}

func TestResolveRunsEveryHookInOrder(t *testing.T) {
	chain := NewChain()
	var order []int
	for i := 0; i < 3; i++ {
		chain.On(func(_ context.Context, _ string, claim *Claim) error {
			order = append(order, i)
			if i == 0 {
				return claim.Set("/zero", nil)
			}
			return nil
		})
	}

	_, err := chain.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestResolveUnclaimed(t *testing.T) {
	chain := NewChain()
	chain.On(func(context.Context, string, *Claim) error { return nil })

	claim, err := chain.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, claim.Resolved())

	_, err = chain.Require(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestHookErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain()
	chain.On(func(context.Context, string, *Claim) error { return boom })
	ran := false
	chain.On(func(context.Context, string, *Claim) error {
		ran = true
		return nil
	})

	_, err := chain.Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ran, "hooks after a failing hook must not run")

	_, err = chain.Require(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestResolveCancelledContext(t *testing.T) {
	chain := NewChain()
	chain.On(claimer("/a", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claim, err := chain.Resolve(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, claim.Resolved())
}

func TestDetach(t *testing.T) {
	chain := NewChain()
	offA := chain.On(claimer("/a", "a"))
	chain.On(claimer("/b", "b"))
	assert.Equal(t, 2, chain.Len())

	offA()
	offA()
	assert.Equal(t, 1, chain.Len())

	got, err := chain.Require(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestLoadIsShared(t *testing.T) {
	assert.Same(t, Load(), Load())
}

func TestConcurrentResolveAndAttach(t *testing.T) {
	chain := NewChain()
	chain.On(claimer("/a", "a"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			off := chain.On(claimer("/b", "b"))
			off()
		}()
		go func() {
			defer wg.Done()
			got, err := chain.Require(context.Background(), "x")
			assert.NoError(t, err)
			assert.Equal(t, "a", got)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, chain.Len())
}
