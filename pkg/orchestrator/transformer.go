package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-cmsform/pkg/render"
)

// Transformer rewrites a page between decoding and rendering.
type Transformer interface {
	Transform(ctx context.Context, page *render.Page) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, page *render.Page) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, page *render.Page) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, page)
}

// Chain runs transformers in order, stopping at the first error.
func Chain(transformers ...Transformer) Transformer {
	return TransformerFunc(func(ctx context.Context, page *render.Page) error {
		for _, t := range transformers {
			if t == nil {
				continue
			}
			if err := t.Transform(ctx, page); err != nil {
				return err
			}
		}
		return nil
	})
}

// PresetTransformer applies declarative overrides read from a JSON or YAML
// document:
//
//	title: Site settings
//	values:
//	  title: Hello
//	  tags: [a, b]
//	omit: [draft]
//	panels:
//	  p-local-data:
//	    title: Page settings
//	    values: {slug: home}
//
// Top-level values and omit apply to every panel; entries under panels apply
// to the panel with that payload id (or panel id).
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title  string                 `yaml:"title"`
	Values map[string]any         `yaml:"values"`
	Omit   []string               `yaml:"omit"`
	Panels map[string]panelPreset `yaml:"panels"`
}

type panelPreset struct {
	Title  string         `yaml:"title"`
	Values map[string]any `yaml:"values"`
	Omit   []string       `yaml:"omit"`
}

// NewPresetTransformer parses a preset document. JSON is accepted as YAML.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the overrides onto page.
func (t *PresetTransformer) Transform(ctx context.Context, page *render.Page) error {
	if page == nil {
		return errors.New("preset transformer: page is nil")
	}
	if t.document.Title != "" {
		page.Title = t.document.Title
	}

	matched := make(map[string]bool, len(t.document.Panels))
	for i := range page.Panels {
		if err := ctx.Err(); err != nil {
			return err
		}
		panel := &page.Panels[i]
		panel.Schema = panel.Schema.WithValues(t.document.Values).Without(t.document.Omit...)

		name, preset, ok := t.panelPreset(*panel)
		if !ok {
			continue
		}
		matched[name] = true
		if preset.Title != "" {
			panel.Title = preset.Title
		}
		panel.Schema = panel.Schema.WithValues(preset.Values).Without(preset.Omit...)
	}

	for name := range t.document.Panels {
		if !matched[name] {
			return fmt.Errorf("preset transformer: panel %q not found", name)
		}
	}
	return nil
}

func (t *PresetTransformer) panelPreset(panel render.Panel) (string, panelPreset, bool) {
	for _, name := range []string{panel.PayloadID, panel.ID} {
		if name == "" {
			continue
		}
		if preset, ok := t.document.Panels[name]; ok {
			return name, preset, true
		}
	}
	return "", panelPreset{}, false
}
