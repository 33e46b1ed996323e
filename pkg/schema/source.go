package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Source identifies where a payload came from so loaders can read files,
// fs.FS entries, URLs or in-memory bytes behind one call.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindURL    SourceKind = "url"
	SourceKindInline SourceKind = "inline"
)

type pathSource struct {
	kind SourceKind
	path string
}

func (s pathSource) Kind() SourceKind { return s.kind }
func (s pathSource) Location() string { return s.path }

// SourceFromFile points at a payload on disk.
func SourceFromFile(path string) Source {
	return pathSource{kind: SourceKindFile, path: filepath.Clean(path)}
}

// SourceFromFS points at an entry inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return pathSource{kind: SourceKindFS, path: name}
}

// SourceFromURL parses raw and returns an HTTP source. It panics on an
// invalid URL so configuration mistakes surface at startup.
func SourceFromURL(raw string) Source {
	if raw == "" {
		panic("schema: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("schema: invalid URL %q: %v", raw, err))
	}
	return pathSource{kind: SourceKindURL, path: raw}
}

// InlineSource carries the payload bytes itself. Name is used for format
// detection and error messages.
type InlineSource struct {
	Name string
	Data []byte
}

func (s InlineSource) Kind() SourceKind { return SourceKindInline }

func (s InlineSource) Location() string {
	if s.Name == "" {
		return "inline"
	}
	return s.Name
}
