// Package config loads engine configuration from HCL files.
//
// A configuration file looks like:
//
//	label = "app"
//	name  = "main"
//
//	path {
//	  view = "node_modules/{LABEL}/pages/{PATH}.jsx"
//	}
//
//	source {
//	  entry = "./client/entry.js"
//	}
//
//	view "home" {
//	  route = "/home"
//	  view  = "./views/Home.jsx"
//	}
//
//	components = {
//	  Nav = "./components/Nav.jsx"
//	}
//
//	map = {
//	  "node_modules/app/assets" = "./assets"
//	}
//
// Relative source paths are resolved against the directory of the file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/agentic-research/reactus/api"
)

// fileRoot is the top-level structure of a configuration file.
type fileRoot struct {
	Label      string            `hcl:"label,optional"`
	Name       string            `hcl:"name,optional"`
	Path       *pathBlock        `hcl:"path,block"`
	Source     *sourceBlock      `hcl:"source,block"`
	Views      []*viewBlock      `hcl:"view,block"`
	Components map[string]string `hcl:"components,optional"`
	Map        map[string]string `hcl:"map,optional"`
	Remain     hcl.Body          `hcl:",remain"`
}

type pathBlock struct {
	Component string `hcl:"component,optional"`
	Entry     string `hcl:"entry,optional"`
	Router    string `hcl:"router,optional"`
	Routes    string `hcl:"routes,optional"`
	View      string `hcl:"view,optional"`
}

type sourceBlock struct {
	Transform string `hcl:"transform,optional"`
	Entry     string `hcl:"entry,optional"`
	Router    string `hcl:"router,optional"`
}

type viewBlock struct {
	Path  string `hcl:"path,label"`
	Route string `hcl:"route"`
	View  string `hcl:"view"`
}

// Load parses the HCL file at path into an engine configuration.
func Load(path string) (*api.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, diags)
	}
	return decode(file.Body, filepath.Dir(path), path)
}

// Parse decodes configuration from src. Relative sources resolve against dir.
func Parse(src []byte, filename, dir string) (*api.Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}
	return decode(file.Body, dir, filename)
}

func decode(body hcl.Body, dir, filename string) (*api.Config, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}

	cfg := &api.Config{
		Label: root.Label,
		Name:  root.Name,
	}
	if root.Path != nil {
		cfg.Path = &api.Paths{
			Component: root.Path.Component,
			Entry:     root.Path.Entry,
			Router:    root.Path.Router,
			Routes:    root.Path.Routes,
			View:      root.Path.View,
		}
	}
	if root.Source != nil {
		cfg.Source = &api.Sources{
			Transform: resolve(dir, root.Source.Transform),
			Entry:     resolve(dir, root.Source.Entry),
			Router:    resolve(dir, root.Source.Router),
		}
	}
	if len(root.Views) > 0 {
		cfg.Views = make(map[string]api.View, len(root.Views))
		for _, v := range root.Views {
			if _, dup := cfg.Views[v.Path]; dup {
				return nil, fmt.Errorf("config %s: duplicate view %q", filename, v.Path)
			}
			cfg.Views[v.Path] = api.View{Route: v.Route, View: resolve(dir, v.View)}
		}
	}
	if len(root.Components) > 0 {
		cfg.Components = make(map[string]string, len(root.Components))
		for name, source := range root.Components {
			cfg.Components[name] = resolve(dir, source)
		}
	}
	if len(root.Map) > 0 {
		cfg.Map = make(map[string]string, len(root.Map))
		for target, source := range root.Map {
			cfg.Map[target] = resolve(dir, source)
		}
	}

	slog.Debug("config loaded", "file", filename, "views", len(cfg.Views), "components", len(cfg.Components), "map", len(cfg.Map))
	return cfg, nil
}

// resolve anchors relative source paths at dir when the anchored path exists.
// Anything else is literal module content and passes through untouched, as
// do absolute paths.
func resolve(dir, source string) string {
	if source == "" || dir == "" || filepath.IsAbs(source) || strings.Contains(source, "\n") {
		return source
	}
	anchored := filepath.Join(dir, source)
	if _, err := os.Stat(anchored); err != nil {
		return source
	}
	return anchored
}
