package form

import (
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/binding"
)

// Classes names the classes applied to generated markup. Empty values are
// left off the element.
type Classes struct {
	Fieldset       string
	Field          string
	ArrayContainer string
	Row            string
	RowInput       string
	Remove         string
	Add            string
}

// DefaultClasses returns the class names the bundled stylesheet and runtime
// expect.
func DefaultClasses() Classes {
	return Classes{
		Fieldset:       "cms-fieldset",
		ArrayContainer: "cms-array-container",
		Row:            "cms-array-item",
		Remove:         "cms-array-remove",
		Add:            "cms-array-add",
	}
}

// Labels holds button captions.
type Labels struct {
	Add    string
	Remove string
}

// DefaultLabels returns the stock captions.
func DefaultLabels() Labels {
	return Labels{Add: "+ Add item", Remove: "×"}
}

// Option configures a Builder.
type Option func(*config)

type config struct {
	codec       arrays.Codec
	bindAttr    string
	titlePolicy *bluemonday.Policy
	logger      *zap.Logger
	classes     Classes
	labels      Labels
}

func defaultConfig() config {
	return config{
		codec:    arrays.CommaCodec{},
		bindAttr: binding.DefaultAttribute,
		logger:   zap.NewNop(),
		classes:  DefaultClasses(),
		labels:   DefaultLabels(),
	}
}

// WithCodec selects the list serialisation used for hidden controls.
func WithCodec(codec arrays.Codec) Option {
	return func(cfg *config) {
		if codec != nil {
			cfg.codec = codec
		}
	}
}

// WithBindAttribute changes the reactive binding attribute (p-model by
// default).
func WithBindAttribute(attr string) Option {
	return func(cfg *config) {
		if attr != "" {
			cfg.bindAttr = attr
		}
	}
}

// WithTitleMarkup treats titles as markup sanitised by policy. A nil policy
// allows a small set of inline elements.
func WithTitleMarkup(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy == nil {
			policy = InlineTitlePolicy()
		}
		cfg.titlePolicy = policy
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

// WithClasses overrides generated class names.
func WithClasses(classes Classes) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// WithLabels overrides button captions. Empty captions keep the defaults.
func WithLabels(labels Labels) Option {
	return func(cfg *config) {
		if labels.Add != "" {
			cfg.labels.Add = labels.Add
		}
		if labels.Remove != "" {
			cfg.labels.Remove = labels.Remove
		}
	}
}

// InlineTitlePolicy permits emphasis, code and span elements with a class.
func InlineTitlePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "code", "small", "span")
	p.AllowAttrs("class").OnElements("span")
	return p
}
