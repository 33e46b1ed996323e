package vanilla_test

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
	"github.com/goliatone/go-cmsform/pkg/testsupport"
)

const pagePayload = `{"title":"Hello","count":3,"tags":["a","b"]}`

func renderPage(t *testing.T, page render.Page, opts render.RenderOptions, options ...vanilla.Option) string {
	t.Helper()
	renderer, err := vanilla.New(options...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(testsupport.Context(), page, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func TestRendererFullPage(t *testing.T) {
	s := testsupport.MustSchema(t, pagePayload)
	out := renderPage(t, render.SinglePanel("Root Data", s), render.RenderOptions{})

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("expected a full document, got:\n%s", out)
	}
	doc := testsupport.ParseDocument(t, out)

	if got := testsupport.Attr(t, doc, "//aside[@data-cms-panel]", "id"); got != form.DefaultPanelID {
		t.Fatalf("unexpected panel id %q", got)
	}
	if got := testsupport.Attr(t, doc, "//button[@data-cms-toggle]", "id"); got != form.DefaultToggleID {
		t.Fatalf("unexpected toggle id %q", got)
	}
	if got := testsupport.Attr(t, doc, "//button[@data-cms-toggle]", "data-cms-visible-class"); got != form.DefaultVisibleClass {
		t.Fatalf("unexpected visible class %q", got)
	}
	if got := testsupport.Attr(t, doc, "//aside[@data-cms-panel]", "data-cms-codec"); got != "comma" {
		t.Fatalf("unexpected codec %q", got)
	}

	legend := testsupport.QueryAll(t, doc, "//aside//fieldset/legend")
	if len(legend) != 1 || doc.Text(legend[0]) != "Root Data" {
		t.Fatalf("expected a single Root Data legend")
	}
	if got := testsupport.Attr(t, doc, "//input[@id='tags']", "type"); got != "hidden" {
		t.Fatalf("expected hidden tags control, got %q", got)
	}
	if got := testsupport.Attr(t, doc, "//input[@id='tags']", "value"); got != "a,b" {
		t.Fatalf("unexpected hidden value %q", got)
	}
	if got := testsupport.Attr(t, doc, "//input[@id='count']", "type"); got != "number" {
		t.Fatalf("expected number input, got %q", got)
	}
	items := testsupport.Values(t, doc, "//div[@id='tags-array-container']//input[@data-array-key='tags']")
	if diff := cmp.Diff([]string{"a", "b"}, items); diff != "" {
		t.Fatalf("item values mismatch (-want +got):\n%s", diff)
	}

	payload := testsupport.QueryAll(t, doc, "//script[@id='p-root-data']")
	if len(payload) != 1 {
		t.Fatalf("expected payload script")
	}
	if got := doc.Text(payload[0]); got != pagePayload {
		t.Fatalf("unexpected payload %q", got)
	}

	if !strings.Contains(out, "wireToggles") || !strings.Contains(out, ".cms-panel.menu-visible") {
		t.Fatalf("expected inline runtime and stylesheet")
	}
}

func TestRendererFragmentWithAssetURLs(t *testing.T) {
	s := testsupport.MustSchema(t, `{"title":"x"}`)
	out := renderPage(t, render.SinglePanel("Root Data", s), render.RenderOptions{},
		vanilla.WithFragment(),
		vanilla.WithRuntimeURL("/runtime/cmsform-runtime.js"),
		vanilla.WithStylesheetURL("/runtime/cmsform.css"),
		vanilla.WithLiveReload("/ws"),
	)

	if strings.Contains(out, "<!DOCTYPE") || strings.Contains(out, "<html") {
		t.Fatalf("fragment should not carry document chrome:\n%s", out)
	}
	for _, want := range []string{
		`<script src="/runtime/cmsform-runtime.js" defer></script>`,
		`<link rel="stylesheet" href="/runtime/cmsform.css">`,
		`data-cms-live="/ws"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "wireToggles") {
		t.Fatalf("runtime should be referenced, not inlined")
	}
}

func TestRendererMultiplePanels(t *testing.T) {
	page := render.Page{
		Title: "Site",
		Panels: []render.Panel{
			{Title: "Root Data", Schema: testsupport.MustSchema(t, `{"a":"1"}`)},
			{Title: "Local Data", Schema: testsupport.MustSchema(t, `{"b":"2"}`)},
			{ID: "extra", Title: "Extra", Schema: testsupport.MustSchema(t, `{"c":"3"}`)},
		},
	}
	doc := testsupport.ParseDocument(t, renderPage(t, page, render.RenderOptions{}))

	var panelIDs, toggleIDs, payloadIDs []string
	for _, node := range testsupport.QueryAll(t, doc, "//aside[@data-cms-panel]") {
		id, _ := doc.Attr(node, "id")
		panelIDs = append(panelIDs, id)
	}
	for _, node := range testsupport.QueryAll(t, doc, "//button[@data-cms-toggle]") {
		id, _ := doc.Attr(node, "id")
		toggleIDs = append(toggleIDs, id)
	}
	for _, node := range testsupport.QueryAll(t, doc, "//script[@type='application/json']") {
		id, _ := doc.Attr(node, "id")
		payloadIDs = append(payloadIDs, id)
	}

	if diff := cmp.Diff([]string{"plenti_cms", "plenti_cms-1", "extra"}, panelIDs); diff != "" {
		t.Fatalf("panel ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"toggle_plenti_cms", "toggle_plenti_cms-1", "toggle_extra"}, toggleIDs); diff != "" {
		t.Fatalf("toggle ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p-root-data", "p-local-data", "p-data-2"}, payloadIDs); diff != "" {
		t.Fatalf("payload ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRendererPanelsSharingListKey(t *testing.T) {
	page := render.Page{
		Panels: []render.Panel{
			{Title: "Root Data", Schema: testsupport.MustSchema(t, `{"tags":["a","b"]}`)},
			{Title: "Local Data", Schema: testsupport.MustSchema(t, `{"tags":["c"]}`)},
		},
	}
	out := renderPage(t, page, render.RenderOptions{})
	doc := testsupport.ParseDocument(t, out)

	panels := testsupport.QueryAll(t, doc, "//aside[@data-cms-panel]")
	if len(panels) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(panels))
	}
	var hidden [][]string
	var items [][]string
	for _, panel := range panels {
		var h, v []string
		nodes, err := doc.QueryAllWithin(panel, ".//input[@type='hidden' and @id='tags']")
		if err != nil {
			t.Fatalf("query hidden: %v", err)
		}
		for _, node := range nodes {
			h = append(h, doc.Value(node))
		}
		nodes, err = doc.QueryAllWithin(panel, ".//input[@data-array-key='tags']")
		if err != nil {
			t.Fatalf("query items: %v", err)
		}
		for _, node := range nodes {
			v = append(v, doc.Value(node))
		}
		hidden = append(hidden, h)
		items = append(items, v)
	}
	if diff := cmp.Diff([][]string{{"a,b"}, {"c"}}, hidden); diff != "" {
		t.Fatalf("hidden values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"a", "b"}, {"c"}}, items); diff != "" {
		t.Fatalf("item values mismatch (-want +got):\n%s", diff)
	}

	// the inline runtime resolves list controls per panel
	for _, want := range []string{"panel.querySelectorAll(", "panel.querySelector(\"#\" + CSS.escape(key))"} {
		if !strings.Contains(out, want) {
			t.Fatalf("runtime should contain %q", want)
		}
	}
	if strings.Contains(out, "document.getElementById(key)") {
		t.Fatal("runtime must not resolve list controls document-wide")
	}
}

func TestRendererToggleIDOverride(t *testing.T) {
	page := render.SinglePanel("Root Data", testsupport.MustSchema(t, `{"a":"1"}`))
	doc := testsupport.ParseDocument(t, renderPage(t, page, render.RenderOptions{}, vanilla.WithToggleID("cms-open")))

	if got := testsupport.Attr(t, doc, "//button[@data-cms-toggle]", "id"); got != "cms-open" {
		t.Fatalf("unexpected toggle id %q", got)
	}
	if got := testsupport.Attr(t, doc, "//button[@data-cms-toggle]", "aria-controls"); got != form.DefaultPanelID {
		t.Fatalf("toggle should still control the panel, got %q", got)
	}
}

func TestRendererAppliesValuesAndTheme(t *testing.T) {
	s := testsupport.MustSchema(t, `{"title":"Hello","tags":["a"]}`)
	cfg := &render.ThemeConfig{
		Theme:   "acme",
		Variant: "dark",
		CSSVars: map[string]string{"--brand": "#123456"},
		AssetURL: func(key string) string {
			if key == "stylesheet" {
				return "/themes/acme/theme.css"
			}
			return ""
		},
	}
	out := renderPage(t, render.SinglePanel("Root Data", s), render.RenderOptions{
		Values: map[string]any{"title": "Changed", "tags": []any{"x", "y"}},
		Theme:  cfg,
	})
	doc := testsupport.ParseDocument(t, out)

	if got := testsupport.Attr(t, doc, "//input[@id='title']", "value"); got != "Changed" {
		t.Fatalf("expected prefilled title, got %q", got)
	}
	if got := testsupport.Attr(t, doc, "//input[@id='tags']", "value"); got != "x,y" {
		t.Fatalf("expected prefilled tags, got %q", got)
	}
	if got := testsupport.Attr(t, doc, "//body", "data-cms-theme"); got != "acme" {
		t.Fatalf("unexpected theme attribute %q", got)
	}
	if style := testsupport.Attr(t, doc, "//div[@class='cms-root']", "style"); !strings.Contains(style, "--brand: #123456") {
		t.Fatalf("expected css variable in style, got %q", style)
	}
	if got := testsupport.Attr(t, doc, "//link[@href='/themes/acme/theme.css']", "rel"); got != "stylesheet" {
		t.Fatalf("expected theme stylesheet link")
	}
}

func TestRendererJSONCodecAttribute(t *testing.T) {
	s := testsupport.MustSchema(t, `{"tags":["a,b","c"]}`)
	out := renderPage(t, render.SinglePanel("Root Data", s), render.RenderOptions{},
		vanilla.WithFormOptions(form.WithCodec(arrays.JSONCodec{})),
	)
	doc := testsupport.ParseDocument(t, out)

	if got := testsupport.Attr(t, doc, "//aside[@data-cms-panel]", "data-cms-codec"); got != "json" {
		t.Fatalf("unexpected codec %q", got)
	}
	if got := testsupport.Attr(t, doc, "//input[@id='tags']", "value"); got != `["a,b","c"]` {
		t.Fatalf("unexpected hidden value %q", got)
	}
}

func TestRendererHonoursCancelledContext(t *testing.T) {
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = renderer.Render(ctx, render.SinglePanel("Root Data", testsupport.MustSchema(t, `{"a":"1"}`)), render.RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAssetsFSServesRuntimeAndStylesheet(t *testing.T) {
	for _, name := range []string{vanilla.RuntimeScriptName, vanilla.StylesheetName} {
		data, err := fs.ReadFile(vanilla.AssetsFS(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("expected %s to have content", name)
		}
	}
}
