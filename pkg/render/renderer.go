// Package render defines the renderer contract shared by the HTML and terminal
// front ends, the page model they consume and theme resolution.
package render

import (
	"context"

	"github.com/goliatone/go-cmsform/pkg/schema"
)

// Renderer turns a Page into bytes (HTML, JSON, text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error)
}

// Page is the unit a renderer produces: one toggleable panel per payload.
type Page struct {
	Title  string
	Panels []Panel
}

// Panel is one fieldset inside the page.
type Panel struct {
	// ID is the DOM id of the panel container; empty means the default panel.
	ID     string
	Title  string
	Schema schema.FieldSchema
	// PayloadID is the id of the script element carrying Schema as JSON.
	PayloadID string
}

// SinglePanel wraps one schema in a page with the default ids.
func SinglePanel(title string, s schema.FieldSchema) Page {
	return Page{
		Title:  title,
		Panels: []Panel{{Title: title, Schema: s, PayloadID: schema.DefaultPayloadID}},
	}
}
