package form

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// Page element ids and defaults used by Mount.
const (
	DefaultPanelID      = "plenti_cms"
	DefaultToggleID     = "toggle_plenti_cms"
	DefaultVisibleClass = "menu-visible"
	DefaultTitle        = "Root Data"
)

// MountToggle flips class on panel each time toggle is clicked. It reports
// whether the toggle was wired.
func MountToggle(doc *dom.Document, toggle, panel *html.Node, class string) bool {
	if doc == nil || toggle == nil || panel == nil {
		return false
	}
	if class == "" {
		class = DefaultVisibleClass
	}
	doc.AddEventListener(toggle, dom.EventClick, func(*dom.Event) {
		doc.ToggleClass(panel, class)
	})
	return true
}

// MountConfig names the page elements Mount wires together. Empty fields take
// the package defaults.
type MountConfig struct {
	PayloadID    string
	PanelID      string
	ToggleID     string
	VisibleClass string
	Title        string
	Builder      *Builder
}

func (c MountConfig) withDefaults() MountConfig {
	if c.PayloadID == "" {
		c.PayloadID = schema.DefaultPayloadID
	}
	if c.PanelID == "" {
		c.PanelID = DefaultPanelID
	}
	if c.ToggleID == "" {
		c.ToggleID = DefaultToggleID
	}
	if c.VisibleClass == "" {
		c.VisibleClass = DefaultVisibleClass
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Builder == nil {
		c.Builder = NewBuilder()
	}
	return c
}

// Mount boots a page: it decodes the payload element, builds the form into
// the panel and wires the toggle. A page without payload or panel yields a
// nil form and no error; a payload that does not decode is an error.
func Mount(doc *dom.Document, cfg MountConfig) (*Form, error) {
	if doc == nil {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	payload := doc.ByID(cfg.PayloadID)
	if payload == nil {
		return nil, nil
	}
	s, err := schema.DecodeJSON([]byte(doc.Text(payload)))
	if err != nil {
		return nil, fmt.Errorf("form: payload #%s: %w", cfg.PayloadID, err)
	}

	panel := doc.ByID(cfg.PanelID)
	if panel == nil {
		return nil, nil
	}
	f, err := cfg.Builder.Build(doc, s, panel, cfg.Title)
	if err != nil {
		return nil, err
	}
	MountToggle(doc, doc.ByID(cfg.ToggleID), panel, cfg.VisibleClass)
	return f, nil
}
