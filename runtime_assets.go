package cmsform

import (
	"io/fs"

	vanilla "github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
)

// RuntimeAssetsFS exposes the browser runtime and stylesheet so Go
// applications can serve them instead of inlining them into every page.
//
// Typical mount:
//
//	mux.Handle("/runtime/",
//	  http.StripPrefix("/runtime/",
//	    http.FileServerFS(cmsform.RuntimeAssetsFS()),
//	  ),
//	)
//
// and render with vanilla.WithRuntimeURL("/runtime/cmsform-runtime.js").
func RuntimeAssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
