// Package transform converts virtual module source into host-loadable source.
//
// The default Transformer parses the source with tree-sitter and refuses
// code whose AST contains errors. Go sources may additionally be formatted
// with gofumpt. Files with no known grammar pass through unchanged.
package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"mvdan.cc/gofumpt/format"
)

// Transformer converts source text for filename according to presets.
type Transformer interface {
	Transform(ctx context.Context, src []byte, filename string, presets Presets) ([]byte, error)
}

// Presets configure a transformation. They are decoded from an HCL file:
//
//	dialect         = "jsx"
//	skip_validation = false
//	format          = true
type Presets struct {
	// Dialect overrides grammar selection by file extension.
	Dialect string `hcl:"dialect,optional"`
	// SkipValidation disables the syntax check.
	SkipValidation bool `hcl:"skip_validation,optional"`
	// Format runs gofumpt over Go sources.
	Format bool `hcl:"format,optional"`
}

// DefaultPresets validate every known dialect and format nothing.
func DefaultPresets() Presets {
	return Presets{}
}

// LoadPresets decodes presets from path. A missing file yields DefaultPresets.
func LoadPresets(path string) (Presets, error) {
	presets := DefaultPresets()
	if path == "" {
		return presets, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presets, nil
		}
		return presets, fmt.Errorf("stat presets %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return presets, nil
	}

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return presets, fmt.Errorf("failed to parse presets %s: %w", path, diags)
	}
	if diags := gohcl.DecodeBody(file.Body, nil, &presets); diags.HasErrors() {
		return presets, fmt.Errorf("failed to decode presets %s: %w", path, diags)
	}
	return presets, nil
}

// SyntaxError contains structured information about a syntax error.
type SyntaxError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// TreeSitter is the default Transformer.
type TreeSitter struct{}

// New returns the default Transformer.
func New() *TreeSitter {
	return &TreeSitter{}
}

// Transform implements Transformer.
func (t *TreeSitter) Transform(ctx context.Context, src []byte, filename string, presets Presets) ([]byte, error) {
	dialect := presets.Dialect
	if dialect == "" {
		dialect = DialectForPath(filename)
	}
	lang := languageFor(dialect)
	if lang == nil {
		return src, nil
	}

	if !presets.SkipValidation {
		if err := validate(ctx, lang, src, filename); err != nil {
			return nil, err
		}
	}

	if presets.Format && dialect == "go" {
		formatted, err := format.Source(src, format.Options{})
		if err != nil {
			return nil, fmt.Errorf("gofumpt %s: %w", filename, err)
		}
		return formatted, nil
	}
	return src, nil
}

func validate(ctx context.Context, lang *sitter.Language, src []byte, filename string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("tree-sitter parse failed for %s: %w", filename, err)
	}

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("tree-sitter returned nil root for %s", filename)
	}
	if !root.HasError() {
		return nil
	}

	if errNode := findFirstError(root); errNode != nil {
		return &SyntaxError{
			FilePath: filename,
			Line:     errNode.StartPoint().Row,
			Column:   errNode.StartPoint().Column,
			Message:  "syntax error in AST",
		}
	}
	return &SyntaxError{FilePath: filename, Message: "AST contains errors"}
}

// findFirstError does a depth-first search for the first ERROR node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// DialectForPath maps file extensions to dialect names.
func DialectForPath(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "jsx"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".go":
		return "go"
	default:
		return ""
	}
}

func languageFor(dialect string) *sitter.Language {
	switch dialect {
	case "jsx", "javascript", "js":
		return javascript.GetLanguage()
	case "typescript", "ts":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "go":
		return golang.GetLanguage()
	default:
		return nil
	}
}
