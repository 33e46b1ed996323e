package orchestrator_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmsform/pkg/orchestrator"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/schema"
	"github.com/goliatone/go-cmsform/pkg/testsupport"
)

type captureRenderer struct {
	name string
	page render.Page
	opts render.RenderOptions
}

func (c *captureRenderer) Name() string        { return c.name }
func (c *captureRenderer) ContentType() string { return "text/plain" }
func (c *captureRenderer) Render(_ context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	c.page = page
	c.opts = opts
	return []byte("ok"), nil
}

func newCapture(t *testing.T, options ...orchestrator.Option) (*orchestrator.Orchestrator, *captureRenderer) {
	t.Helper()
	renderer := &captureRenderer{name: "capture"}
	registry, err := render.NewRegistry(renderer)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	options = append([]orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer("capture"),
	}, options...)
	return orchestrator.New(options...), renderer
}

func inline(name, data string) schema.Source {
	return schema.InlineSource{Name: name, Data: []byte(data)}
}

func TestGenerateDecodesEverySourceKind(t *testing.T) {
	orch, renderer := newCapture(t)

	openAPI := `openapi: 3.0.3
info: {title: cms, version: "1"}
paths: {}
components:
  schemas:
    Post:
      type: object
      properties:
        title: {type: string, default: Untitled}
`
	page := `<html><body><script id="p-local-data" type="application/json">{"slug":"home"}</script></body></html>`

	out, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Panels: []orchestrator.PanelRequest{
			{Source: inline("root.json", `{"title":"Hi","tags":["a"]}`), Title: "Root Data"},
			{Source: inline("post.yaml", openAPI), Component: "Post", Title: "Post"},
			{Source: inline("page.html", page), EmbeddedID: schema.LocalPayloadID, Title: "Local"},
			{Source: inline("site.toml", "name = \"cms\"\nport = 8080\n"), Title: "Site"},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "ok" {
		t.Fatalf("unexpected output %q", out)
	}

	var keys [][]string
	for _, panel := range renderer.page.Panels {
		keys = append(keys, panel.Schema.Keys())
	}
	want := [][]string{{"title", "tags"}, {"title"}, {"slug"}, {"name", "port"}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("panel keys mismatch (-want +got):\n%s", diff)
	}
	if renderer.page.Title != "Root Data" {
		t.Fatalf("expected page title from first panel, got %q", renderer.page.Title)
	}
}

func TestGenerateRequiresPanelsAndSource(t *testing.T) {
	orch, _ := newCapture(t)
	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error without panels")
	}
	if _, err := orch.Generate(testsupport.Context(), orchestrator.Request{Panels: []orchestrator.PanelRequest{{}}}); err == nil {
		t.Fatalf("expected error without source")
	}
	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Panels: []orchestrator.PanelRequest{{Source: inline("x.json", `[1]`)}},
	})
	if err == nil || !strings.Contains(err.Error(), "not an object") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGenerateUnknownRenderer(t *testing.T) {
	orch, _ := newCapture(t)
	_, err := orch.Generate(testsupport.Context(), orchestrator.Request{
		Renderer: "missing",
		Panels:   []orchestrator.PanelRequest{{Source: inline("a.json", `{"a":"1"}`)}},
	})
	if err == nil || !strings.Contains(err.Error(), `renderer "missing"`) {
		t.Fatalf("expected renderer error, got %v", err)
	}
}

func TestGenerateAppliesTransformers(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformerFromFS(fstest.MapFS{
		"preset.yaml": {Data: []byte(`title: Settings
values:
  count: 3
omit: [draft]
panels:
  p-local-data:
    title: Page
    values: {slug: home}
`)},
	}, "preset.yaml")
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	called := false
	orch, renderer := newCapture(t, orchestrator.WithTransformer(orchestrator.Chain(
		preset,
		orchestrator.TransformerFunc(func(_ context.Context, page *render.Page) error {
			called = true
			return nil
		}),
	)))

	_, err = orch.Generate(testsupport.Context(), orchestrator.Request{
		Panels: []orchestrator.PanelRequest{
			{Source: inline("root.json", `{"title":"Hi","draft":"yes"}`), PayloadID: schema.DefaultPayloadID},
			{Source: inline("local.json", `{"slug":""}`), PayloadID: schema.LocalPayloadID},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !called {
		t.Fatalf("expected chained transformer to run")
	}
	if renderer.page.Title != "Settings" {
		t.Fatalf("unexpected title %q", renderer.page.Title)
	}
	root := renderer.page.Panels[0].Schema
	if diff := cmp.Diff([]string{"title", "count"}, root.Keys()); diff != "" {
		t.Fatalf("root keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := root.Get("count"); v.Kind != schema.KindNumber || v.Text != "3" {
		t.Fatalf("unexpected count %+v", v)
	}
	local := renderer.page.Panels[1]
	if v, _ := local.Schema.Get("slug"); v.Text != "home" || local.Title != "Page" {
		t.Fatalf("unexpected local panel %+v", local)
	}
}

func TestPresetTransformerRejectsUnknownPanel(t *testing.T) {
	preset, err := orchestrator.NewPresetTransformer([]byte(`{"panels":{"nope":{"title":"x"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	page := render.SinglePanel("Root", schema.New())
	if err := preset.Transform(testsupport.Context(), &page); err == nil {
		t.Fatalf("expected unknown panel error")
	}
	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected empty document error")
	}
}

func TestGenerateResolvesTheme(t *testing.T) {
	selector, err := render.NewManifestSelector("", "", &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens:  map[string]string{"brand": "#123456"},
		Variants: map[string]theme.Variant{
			"dark": {Tokens: map[string]string{"brand": "#000000"}},
		},
	})
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	orch, renderer := newCapture(t, orchestrator.WithThemeSelector(selector))

	_, err = orch.Generate(testsupport.Context(), orchestrator.Request{
		ThemeVariant: "dark",
		Panels:       []orchestrator.PanelRequest{{Source: inline("a.json", `{"a":"1"}`)}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	cfg := renderer.opts.Theme
	if cfg == nil || cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected theme config %+v", cfg)
	}
	if got := cfg.CSSVars["--brand"]; got != "#000000" {
		t.Fatalf("expected variant token, got %q", got)
	}
}

func TestDefaultRegistryRendersHTML(t *testing.T) {
	doc := schema.MustNewDocument(inline("a.json", `{"tags":["a","b"]}`), []byte(`{"tags":["a","b"]}`), "")
	out, err := orchestrator.New().Generate(testsupport.Context(), orchestrator.Request{
		Panels: []orchestrator.PanelRequest{{Document: &doc, Title: "Root Data"}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `value="a,b"`) {
		t.Fatalf("expected hidden control in output")
	}
}
