// Package vanilla renders pages as static HTML with an embedded browser
// runtime that keeps list fields in sync client-side.
package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/render"
	rendertemplate "github.com/goliatone/go-cmsform/pkg/render/template"
	gotemplate "github.com/goliatone/go-cmsform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

const (
	pageTemplate     = "templates/page.tmpl"
	fragmentTemplate = "templates/fragment.tmpl"
)

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	builder   *form.Builder
	cfg       config
	logger    *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		visibleClass: form.DefaultVisibleClass,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	logger := cfg.logger.Named("vanilla")
	formOptions := append([]form.Option{form.WithLogger(cfg.logger)}, cfg.formOptions...)
	return &Renderer{
		templates: templates,
		builder:   form.NewBuilder(formOptions...),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string {
	return "vanilla"
}

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render implements render.Renderer.
func (r *Renderer) Render(ctx context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	page = options.Apply(page)

	panels := make([]map[string]any, 0, len(page.Panels))
	for i, panel := range page.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		built, err := r.buildPanel(i, panel)
		if err != nil {
			return nil, err
		}
		panels = append(panels, built)
	}

	data := map[string]any{
		"title":          page.Title,
		"panels":         panels,
		"visible_class":  r.cfg.visibleClass,
		"codec":          r.builder.Codec().Name(),
		"bind_attribute": r.builder.BindAttribute(),
		"live_path":      r.cfg.livePath,
		"runtime_url":    r.cfg.runtimeURL,
		"stylesheet_url": r.cfg.stylesheetURL,
		"css_vars":       render.CSSVarDeclarations(options.Theme),
	}
	if r.cfg.runtimeURL == "" {
		data["runtime"] = readAsset(RuntimeScriptName)
	}
	if r.cfg.stylesheetURL == "" {
		data["stylesheet"] = readAsset(StylesheetName)
	}
	if options.Theme != nil {
		data["theme_name"] = options.Theme.Theme
		data["theme_variant"] = options.Theme.Variant
		if options.Theme.AssetURL != nil {
			data["theme_stylesheet"] = options.Theme.AssetURL("stylesheet")
		}
	}

	fragment, err := r.templates.RenderTemplate(fragmentTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render fragment: %w", err)
	}
	if r.cfg.fragment {
		return []byte(fragment), nil
	}
	data["fragment"] = fragment
	out, err := r.templates.RenderTemplate(pageTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render page: %w", err)
	}
	r.logger.Debug("page rendered", zap.Int("panels", len(panels)), zap.Int("bytes", len(out)))
	return []byte(out), nil
}

func (r *Renderer) buildPanel(index int, panel render.Panel) (map[string]any, error) {
	id := panel.ID
	if id == "" {
		id = form.DefaultPanelID
		if index > 0 {
			id += "-" + strconv.Itoa(index)
		}
	}
	payloadID := panel.PayloadID
	if payloadID == "" {
		switch index {
		case 0:
			payloadID = schema.DefaultPayloadID
		case 1:
			payloadID = schema.LocalPayloadID
		default:
			payloadID = "p-data-" + strconv.Itoa(index)
		}
	}
	title := panel.Title
	if title == "" {
		title = form.DefaultTitle
	}

	doc := dom.New()
	container := doc.Append(doc.Body(), doc.CreateElement("div"))
	if _, err := r.builder.Build(doc, panel.Schema, container, title); err != nil {
		return nil, fmt.Errorf("vanilla renderer: build panel %s: %w", id, err)
	}

	var markup bytes.Buffer
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&markup, child); err != nil {
			return nil, fmt.Errorf("vanilla renderer: serialise panel %s: %w", id, err)
		}
	}
	payload, err := panel.Schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: encode payload %s: %w", id, err)
	}

	return map[string]any{
		"id":         id,
		"toggle_id":  r.toggleID(index, id),
		"title":      title,
		"payload_id": payloadID,
		"payload":    string(payload),
		"fieldset":   markup.String(),
	}, nil
}

func (r *Renderer) toggleID(index int, panelID string) string {
	if index == 0 && r.cfg.toggleID != "" {
		return r.cfg.toggleID
	}
	if panelID == form.DefaultPanelID {
		return form.DefaultToggleID
	}
	return "toggle_" + panelID
}
