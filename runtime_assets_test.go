package cmsform

import (
	"io/fs"
	"strings"
	"testing"

	vanilla "github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
)

func TestRuntimeAssetsFSContainsRuntimeScript(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), vanilla.RuntimeScriptName)
	if err != nil {
		t.Fatalf("expected runtime script to be readable: %v", err)
	}
	if !strings.Contains(string(data), "wireToggles") {
		t.Fatalf("expected runtime script to wire panel toggles")
	}
}

func TestRuntimeAssetsFSStylesheetHidesPanel(t *testing.T) {
	data, err := fs.ReadFile(RuntimeAssetsFS(), vanilla.StylesheetName)
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), ".menu-visible") {
		t.Fatalf("expected stylesheet to style the visible panel")
	}
}

func TestEmbeddedTemplatesExposePage(t *testing.T) {
	if _, err := fs.Stat(EmbeddedTemplates(), "templates/page.tmpl"); err != nil {
		t.Fatalf("expected page template: %v", err)
	}
}
