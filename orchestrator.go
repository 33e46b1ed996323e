// Package cmsform renders CMS editing panels from JSON field schemas. It
// re-exports the common entry points of pkg/orchestrator so callers can get
// HTML with a single import.
package cmsform

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-cmsform/pkg/orchestrator"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// RenderOptions carries per-request values and the resolved theme.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request for multi-panel callers.
type Request = orchestrator.Request

// PanelRequest aliases orchestrator.PanelRequest.
type PanelRequest = orchestrator.PanelRequest

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads source, decodes it into a field schema and renders a
// single panel with the named renderer. An empty name uses the default
// renderer.
func GenerateHTML(ctx context.Context, source schema.Source, title, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Renderer: rendererName,
		Panels:   []orchestrator.PanelRequest{{Source: source, Title: title}},
	})
}

// GenerateHTMLFromDocument renders a pre-loaded document, bypassing the
// loader stage.
func GenerateHTMLFromDocument(ctx context.Context, doc schema.Document, title, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Renderer: rendererName,
		Panels:   []orchestrator.PanelRequest{{Document: &doc, Title: title}},
	})
}

// GenerateHTMLFromJSON renders raw JSON object bytes.
func GenerateHTMLFromJSON(ctx context.Context, payload []byte, title string, options ...orchestrator.Option) ([]byte, error) {
	return GenerateHTML(ctx, schema.InlineSource{Name: "payload.json", Data: payload}, title, "", options...)
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices are resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithTransformer registers a page transformer.
func WithTransformer(t orchestrator.Transformer) orchestrator.Option {
	return orchestrator.WithTransformer(t)
}
