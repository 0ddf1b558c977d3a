package engine

import "strings"

// Vars are the runtime values substituted into path templates.
type Vars struct {
	Label string // {LABEL}
	Name  string // {NAME}
	Path  string // {PATH}
}

// Expand substitutes every placeholder, empty values included. Substituted
// values are not expanded again.
func Expand(template string, v Vars) string {
	return strings.NewReplacer(
		"{LABEL}", v.Label,
		"{NAME}", v.Name,
		"{PATH}", v.Path,
	).Replace(template)
}
