package cmsform

import (
	internalLoader "github.com/goliatone/go-cmsform/internal/schema/loader"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	cfg := schema.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}
