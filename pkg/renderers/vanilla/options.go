package vanilla

import (
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-cmsform/pkg/form"
	rendertemplate "github.com/goliatone/go-cmsform/pkg/render/template"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	formOptions      []form.Option
	fragment         bool
	runtimeURL       string
	stylesheetURL    string
	livePath         string
	visibleClass     string
	toggleID         string
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle. It must contain
// templates/page.tmpl and templates/fragment.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads the template bundle from disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.templateFS = os.DirFS(path)
		}
	}
}

// WithTemplateRenderer injects a custom template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithFormOptions forwards options to the form builder (codec, binding
// attribute, classes, labels).
func WithFormOptions(options ...form.Option) Option {
	return func(cfg *config) {
		cfg.formOptions = append(cfg.formOptions, options...)
	}
}

// WithFragment renders only the panels, payloads and runtime, for embedding
// into an existing page.
func WithFragment() Option {
	return func(cfg *config) {
		cfg.fragment = true
	}
}

// WithRuntimeURL references the runtime script by URL instead of inlining it.
func WithRuntimeURL(url string) Option {
	return func(cfg *config) {
		cfg.runtimeURL = url
	}
}

// WithStylesheetURL references the stylesheet by URL instead of inlining it.
func WithStylesheetURL(url string) Option {
	return func(cfg *config) {
		cfg.stylesheetURL = url
	}
}

// WithLiveReload makes the runtime open a websocket at path, report binding
// changes and reload on request.
func WithLiveReload(path string) Option {
	return func(cfg *config) {
		cfg.livePath = path
	}
}

// WithVisibleClass changes the class the toggle flips on the panel.
func WithVisibleClass(class string) Option {
	return func(cfg *config) {
		if class != "" {
			cfg.visibleClass = class
		}
	}
}

// WithToggleID sets the id of the first panel's toggle button. Later panels
// keep toggle_<panel id>.
func WithToggleID(id string) Option {
	return func(cfg *config) {
		cfg.toggleID = id
	}
}

// WithLogger attaches a logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
