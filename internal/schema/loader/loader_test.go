package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmsform/pkg/schema"
)

func TestLoadFromFileDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.toml")
	if err := os.WriteFile(path, []byte("title = \"x\"\ncount = 2\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Format() != schema.FormatTOML {
		t.Fatalf("expected toml, got %q", doc.Format())
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if diff := cmp.Diff([]string{"title", "count"}, s.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFS(t *testing.T) {
	files := fstest.MapFS{
		"schemas/post.json": {Data: []byte(`{"tags":["a","b"]}`)},
	}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("schemas/post.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Location() != "schemas/post.json" {
		t.Fatalf("unexpected location %q", doc.Location())
	}

	if _, err := l.Load(context.Background(), schema.SourceFromFS("missing.json")); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}

func TestLoadHTTPRequiresClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schema.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"count":5}`))
	}))
	defer srv.Close()

	src := schema.SourceFromURL(srv.URL + "/schema.json")
	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), src); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(srv.Client())))
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if v, _ := s.Get("count"); v.Kind != schema.KindNumber || v.Text != "5" {
		t.Fatalf("unexpected count %+v", v)
	}

	if _, err := l.Load(context.Background(), schema.SourceFromURL(srv.URL+"/missing")); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(schema.NewLoaderOptions()).Load(ctx, schema.SourceFromFile("whatever.json")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestLoadInlineWithForcedFormat(t *testing.T) {
	l := New(schema.NewLoaderOptions(schema.WithFormat(schema.FormatYAML)))
	doc, err := l.Load(context.Background(), schema.InlineSource{Data: []byte("a: 1\n")})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Format() != schema.FormatYAML {
		t.Fatalf("expected forced yaml, got %q", doc.Format())
	}
}
