package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentic-research/reactus/api"
	"github.com/agentic-research/reactus/internal/resolver"
)

const viewSlots = 5

// manifestOf decodes the generated routes module.
func manifestOf(files map[string][]byte, target string) (map[string]string, error) {
	body, ok := strings.CutPrefix(string(files[target]), "module.exports = ")
	if !ok {
		return nil, fmt.Errorf("%s: missing module.exports prefix", target)
	}
	routes := map[string]string{}
	if err := json.Unmarshal([]byte(body), &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

// TestManifestProperties checks that the route manifest always mirrors the
// current views, whatever order they are added, removed and re-added in.
func TestManifestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// op < viewSlots adds view op; otherwise removes view op-viewSlots.
	// read decides whether files are materialized after the op.
	properties.Property("manifest equals {route: view target} for current views", prop.ForAll(
		func(ops []int, reads []bool) bool {
			e := New(&api.Config{Label: "app"},
				WithRoot(t.TempDir()),
				WithResolver(resolver.NewChain()),
				WithLogger(quietLogger()),
			)
			defer e.Detach()

			want := map[string]string{}
			for i, op := range ops {
				if op < viewSlots {
					p := fmt.Sprintf("page%d", op)
					if err := e.View("/r"+p, p, "export default 1;"); err != nil {
						return false
					}
					want["/r"+p] = "node_modules/app/views/" + p + ".jsx"
				} else {
					p := fmt.Sprintf("page%d", op-viewSlots)
					_ = e.RemoveView(p)
					delete(want, "/r"+p)
				}

				if i < len(reads) && !reads[i] {
					continue
				}
				files, err := e.Files()
				if err != nil {
					return false
				}
				got, err := manifestOf(files, "node_modules/app/routes.js")
				if err != nil {
					return false
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Logf("manifest mismatch (-want +got):\n%s", diff)
					return false
				}
			}

			files, err := e.Files()
			if err != nil {
				return false
			}
			got, err := manifestOf(files, "node_modules/app/routes.js")
			return err == nil && cmp.Equal(want, got)
		},
		gen.SliceOf(gen.IntRange(0, 2*viewSlots-1)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestNamespaceProperties checks that absolute and relative requests are
// never claimed, even when a target with the same spelling exists.
func TestNamespaceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(5678)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	e := New(&api.Config{Label: "app", Name: "web"},
		WithRoot(t.TempDir()),
		WithResolver(resolver.NewChain()),
		WithLogger(quietLogger()),
	)
	defer e.Detach()

	properties.Property("requests starting with / or . are declined", prop.ForAll(
		func(prefix bool, rest string) bool {
			lead := "/"
			if prefix {
				lead = "."
			}
			request := lead + rest
			_ = e.Component(rest, "export default 1;")

			claim, err := e.Resolver().Resolve(context.Background(), request)
			return err == nil && !claim.Resolved()
		},
		gen.Bool(),
		gen.OneGenOf(
			gen.AlphaString(),
			gen.Const("app/entry.js"),
			gen.Const("app/engine/web"),
			gen.Const("/app/routes.js"),
		),
	))

	properties.TestingRun(t)
}
