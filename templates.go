package cmsform

import (
	"io/fs"

	vanilla "github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
)

// EmbeddedTemplates exposes the built-in page and fragment templates so
// callers can reuse or extend them without importing the renderer package.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}
