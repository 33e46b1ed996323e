package render

// RenderOptions carry per-request data that customise output without touching
// the page.
type RenderOptions struct {
	// Values prefill controls by field key. Unknown keys are appended to the
	// panel as new fields.
	Values map[string]any
	// Theme holds resolved tokens and asset locations.
	Theme *ThemeConfig
}

// Apply returns a copy of page with Values merged into every panel schema.
func (o RenderOptions) Apply(page Page) Page {
	if len(o.Values) == 0 {
		return page
	}
	out := page
	out.Panels = make([]Panel, len(page.Panels))
	for i, panel := range page.Panels {
		panel.Schema = panel.Schema.WithValues(o.Values)
		out.Panels[i] = panel
	}
	return out
}
