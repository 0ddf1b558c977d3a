// Package loader instantiates modules from transformed source text.
package loader

import (
	"bytes"

	"github.com/ohler55/ojg/oj"
)

// Loader instantiates a module from host-loadable source. origin is the
// module's originating path, used for diagnostics and relative resolution.
type Loader interface {
	Load(code []byte, origin string) (any, error)
}

// Func adapts a function to the Loader interface.
type Func func(code []byte, origin string) (any, error)

// Load implements Loader.
func (f Func) Load(code []byte, origin string) (any, error) { return f(code, origin) }

// Module is an instantiated, isolated module.
type Module struct {
	Filename string
	Code     []byte
	// Exports holds the module's exports when they are a static data
	// literal (module.exports = {...}); nil otherwise.
	Exports any
}

// ModuleLoader is the default Loader. It does not execute code; it records
// the module and decodes static data exports.
type ModuleLoader struct{}

// New returns the default Loader.
func New() *ModuleLoader {
	return &ModuleLoader{}
}

var exportsPrefix = []byte("module.exports")

// Load implements Loader.
func (l *ModuleLoader) Load(code []byte, origin string) (any, error) {
	mod := &Module{Filename: origin, Code: code}

	body, ok := staticExports(code)
	if !ok {
		return mod, nil
	}
	exports, err := oj.Parse(body)
	if err != nil {
		// Object literal with code in it; not static data.
		return mod, nil
	}
	mod.Exports = exports
	return mod, nil
}

// staticExports extracts the right-hand side of a `module.exports = <data>`
// module when it is a data literal.
func staticExports(code []byte) ([]byte, bool) {
	rest := bytes.TrimSpace(code)
	if !bytes.HasPrefix(rest, exportsPrefix) {
		return nil, false
	}
	rest = bytes.TrimSpace(rest[len(exportsPrefix):])
	if len(rest) == 0 || rest[0] != '=' {
		return nil, false
	}
	rest = bytes.TrimSpace(rest[1:])
	rest = bytes.TrimSpace(bytes.TrimSuffix(rest, []byte(";")))
	if len(rest) == 0 {
		return nil, false
	}
	switch rest[0] {
	case '{', '[', '"':
		return rest, true
	default:
		return nil, false
	}
}
