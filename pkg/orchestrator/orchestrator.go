package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	schemaloader "github.com/goliatone/go-cmsform/internal/schema/loader"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom schema loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that can rewrite the page after
// decoding and before rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithThemeSelector resolves Request.ThemeName/ThemeVariant before rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithLogger attaches a logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from payload to rendered output. It
// applies defaults (file/fs loader, vanilla renderer) while staying open to
// dependency injection.
type Orchestrator struct {
	loader          schema.Loader
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	themeSelector   theme.ThemeSelector
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// PanelRequest describes where one panel's payload comes from.
type PanelRequest struct {
	// Source is loaded through the configured loader. Optional when Document
	// is supplied.
	Source schema.Source
	// Document bypasses the loader.
	Document *schema.Document
	// Component selects a schema under components.schemas when the payload is
	// an OpenAPI document.
	Component string
	// EmbeddedID is the element id holding the payload when the source is an
	// HTML page. Empty means schema.DefaultPayloadID.
	EmbeddedID string

	ID        string
	Title     string
	PayloadID string
}

// Request describes one page to generate.
type Request struct {
	Title  string
	Panels []PanelRequest

	// Renderer names the renderer to use. Empty falls back to the default.
	Renderer string

	ThemeName    string
	ThemeVariant string

	RenderOptions render.RenderOptions
}

// Generate loads every panel, applies the transformer, resolves the theme and
// renders the page.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	page, err := o.Page(ctx, req)
	if err != nil {
		return nil, err
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Theme == nil && o.themeSelector != nil {
		cfg, err := render.ResolveTheme(o.themeSelector, req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		opts.Theme = cfg
	}

	output, err := renderer.Render(ctx, page, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	o.logger.Debug("generated",
		zap.String("renderer", renderer.Name()),
		zap.Int("panels", len(page.Panels)),
		zap.Int("bytes", len(output)),
	)
	return output, nil
}

// Page runs the pipeline up to, but not including, rendering.
func (o *Orchestrator) Page(ctx context.Context, req Request) (render.Page, error) {
	if ctx == nil {
		return render.Page{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return render.Page{}, err
	}
	if err := o.initialiseErr; err != nil {
		return render.Page{}, err
	}
	if len(req.Panels) == 0 {
		return render.Page{}, errors.New("orchestrator: at least one panel is required")
	}

	page := render.Page{Title: req.Title, Panels: make([]render.Panel, 0, len(req.Panels))}
	for _, p := range req.Panels {
		s, err := o.Schema(ctx, p)
		if err != nil {
			return render.Page{}, err
		}
		page.Panels = append(page.Panels, render.Panel{
			ID:        p.ID,
			Title:     p.Title,
			Schema:    s,
			PayloadID: p.PayloadID,
		})
	}
	if page.Title == "" {
		page.Title = page.Panels[0].Title
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &page); err != nil {
			return render.Page{}, fmt.Errorf("orchestrator: transform page: %w", err)
		}
	}
	return page, nil
}

// Schema loads and decodes a single panel payload.
func (o *Orchestrator) Schema(ctx context.Context, p PanelRequest) (schema.FieldSchema, error) {
	doc, err := o.resolveDocument(ctx, p)
	if err != nil {
		return schema.FieldSchema{}, err
	}
	var s schema.FieldSchema
	switch {
	case p.Component != "":
		s, err = schema.FromOpenAPI(ctx, doc.Raw(), p.Component)
	case doc.Format() == schema.FormatHTML:
		id := p.EmbeddedID
		if id == "" {
			id = schema.DefaultPayloadID
		}
		s, err = schema.ExtractEmbedded(bytes.NewReader(doc.Raw()), id)
	default:
		s, err = doc.Schema()
	}
	if err != nil {
		return schema.FieldSchema{}, fmt.Errorf("orchestrator: decode %s: %w", doc.Location(), err)
	}
	return s, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, p PanelRequest) (schema.Document, error) {
	if p.Document != nil {
		return *p.Document, nil
	}
	if p.Source == nil {
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, p.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}

func (o *Orchestrator) applyDefaults() {
	o.logger = o.logger.Named("orchestrator")
	if o.loader == nil {
		o.loader = schemaloader.New(schema.NewLoaderOptions())
	}
	if o.registry == nil {
		renderer, err := vanilla.New(vanilla.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry, o.initialiseErr = render.NewRegistry(renderer)
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
