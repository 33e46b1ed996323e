package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmsform/pkg/schema"
)

type stubRenderer struct {
	name string
	got  Page
}

func (s *stubRenderer) Name() string        { return s.name }
func (s *stubRenderer) ContentType() string { return "text/plain" }

func (s *stubRenderer) Render(_ context.Context, page Page, options RenderOptions) ([]byte, error) {
	s.got = options.Apply(page)
	if s.name == "broken" {
		return nil, errors.New("boom")
	}
	return []byte(strings.Join(s.got.Panels[0].Schema.Keys(), ",")), nil
}

func TestRegistry(t *testing.T) {
	a := &stubRenderer{name: "a"}
	reg, err := NewRegistry(a, &stubRenderer{name: "broken"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Register(&stubRenderer{name: "a"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if diff := cmp.Diff([]string{"a", "broken"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, err := reg.Get("missing"); err == nil {
		t.Fatalf("expected lookup error")
	}

	page := SinglePanel("Root Data", schema.New(schema.Field{Key: "title", Value: schema.Text("x")}))
	out, contentType, err := reg.Render(context.Background(), "a", page, RenderOptions{
		Values: map[string]any{"extra": "y", "title": "z"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "title,extra" || contentType != "text/plain" {
		t.Fatalf("unexpected output %q %q", out, contentType)
	}
	if v, _ := a.got.Panels[0].Schema.Get("title"); v.Text != "z" {
		t.Fatalf("expected values applied, got %q", v.Text)
	}
	if v, _ := page.Panels[0].Schema.Get("title"); v.Text != "x" {
		t.Fatalf("apply must not mutate the caller's page")
	}

	if _, _, err := reg.Render(context.Background(), "broken", page, RenderOptions{}); err == nil {
		t.Fatalf("expected renderer error")
	}
}

func testManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":       "#123456",
			"panel.width": "24rem",
		},
		Templates: map[string]string{"page": "themes/acme/page.tmpl"},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files:  map[string]string{"stylesheet": "theme.css"},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"brand": "#654321"},
				Assets: theme.Assets{
					Files: map[string]string{"stylesheet": "theme.dark.css"},
				},
			},
		},
	}
}

func TestThemeConfigFromSelectionMergesVariant(t *testing.T) {
	cfg := ThemeConfigFromSelection(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: testManifest()})
	if cfg.Tokens["brand"] != "#654321" {
		t.Fatalf("variant token should win, got %q", cfg.Tokens["brand"])
	}
	want := map[string]string{"--brand": "#654321", "--panel-width": "24rem"}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.dark.css" {
		t.Fatalf("unexpected asset url %q", got)
	}
	if got := cfg.AssetURL("https://cdn.example.com/x.css"); got != "https://cdn.example.com/x.css" {
		t.Fatalf("absolute urls pass through, got %q", got)
	}
	if got := CSSVarDeclarations(cfg); got != "--brand: #654321; --panel-width: 24rem;" {
		t.Fatalf("unexpected declarations %q", got)
	}
	if ThemeConfigFromSelection(nil) != nil {
		t.Fatalf("nil selection should give nil config")
	}
}

func TestManifestSelectorDefaults(t *testing.T) {
	selector, err := NewManifestSelector("", "dark", testManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	cfg, err := ResolveTheme(selector, "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected selection %s/%s", cfg.Theme, cfg.Variant)
	}

	sel, err := selector.Select("acme", "sepia")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Variant != "dark" {
		t.Fatalf("unknown variant should fall back to default, got %q", sel.Variant)
	}
	if _, err := selector.Select("other", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if err := selector.Register(testManifest()); err == nil {
		t.Fatalf("expected duplicate theme error")
	}
	if cfg, err := ResolveTheme(nil, "x", "y"); cfg != nil || err != nil {
		t.Fatalf("nil selector should resolve to nothing")
	}
}
