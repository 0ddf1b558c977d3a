package api

// Config is the configuration of a virtual engine.
// Zero-valued fields fall back to the engine defaults.
type Config struct {
	// Label white-labels the virtual namespace ({LABEL} in path templates).
	Label string `json:"label,omitempty"`
	// Name gives the engine an identity, making it importable as
	// <label>/engine/<name>.
	Name string `json:"name,omitempty"`
	// Path holds the virtual target templates.
	Path *Paths `json:"path,omitempty"`
	// Source holds the fixed source paths (or literal contents).
	Source *Sources `json:"source,omitempty"`
	// Views maps a route-relative path to its route and view source.
	Views map[string]View `json:"views,omitempty"`
	// Components maps a component name to its source.
	Components map[string]string `json:"components,omitempty"`
	// Map maps an arbitrary target to a source file or directory.
	Map map[string]string `json:"map,omitempty"`
}

// Paths are the virtual path templates. Placeholders: {LABEL}, {NAME}, {PATH}.
type Paths struct {
	Component string `json:"component,omitempty"`
	Entry     string `json:"entry,omitempty"`
	Router    string `json:"router,omitempty"`
	Routes    string `json:"routes,omitempty"`
	View      string `json:"view,omitempty"`
}

// Sources are the fixed sources of the generated artifacts.
type Sources struct {
	// Transform points at the transformation preset file.
	Transform string `json:"transform,omitempty"`
	Entry     string `json:"entry,omitempty"`
	Router    string `json:"router,omitempty"`
}

// View is a single routed view.
type View struct {
	Route string `json:"route"`
	View  string `json:"view"`
}

// Data converts the configuration into the generic form held by the registry.
// Only non-empty fields are emitted so that merging leaves other keys alone.
func (c *Config) Data() map[string]any {
	data := map[string]any{}
	if c == nil {
		return data
	}
	if c.Label != "" {
		data["label"] = c.Label
	}
	if c.Name != "" {
		data["name"] = c.Name
	}
	if c.Path != nil {
		if m := nonEmpty(map[string]string{
			"component": c.Path.Component,
			"entry":     c.Path.Entry,
			"router":    c.Path.Router,
			"routes":    c.Path.Routes,
			"view":      c.Path.View,
		}); len(m) > 0 {
			data["path"] = m
		}
	}
	if c.Source != nil {
		if m := nonEmpty(map[string]string{
			"transform": c.Source.Transform,
			"entry":     c.Source.Entry,
			"router":    c.Source.Router,
		}); len(m) > 0 {
			data["source"] = m
		}
	}
	if len(c.Views) > 0 {
		views := make(map[string]any, len(c.Views))
		for path, v := range c.Views {
			views[path] = map[string]any{"route": v.Route, "view": v.View}
		}
		data["views"] = views
	}
	if len(c.Components) > 0 {
		data["components"] = nonEmpty(c.Components)
	}
	if len(c.Map) > 0 {
		data["map"] = nonEmpty(c.Map)
	}
	return data
}

func nonEmpty(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
