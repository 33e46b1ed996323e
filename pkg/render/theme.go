package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig is the resolved theme handed to renderers.
type ThemeConfig = theme.RendererConfig

// ThemeConfigFromSelection flattens a selection: variant tokens, templates and
// asset files override the manifest's, and every token becomes a --name CSS
// variable. AssetURL resolves manifest asset keys and passes paths through;
// an unknown bare key resolves to "".
func ThemeConfigFromSelection(selection *theme.Selection) *ThemeConfig {
	if selection == nil {
		return nil
	}
	cfg := &ThemeConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
		Partials: map[string]string{},
	}
	prefix := ""
	files := map[string]string{}

	if m := selection.Manifest; m != nil {
		if cfg.Theme == "" {
			cfg.Theme = m.Name
		}
		mergeStrings(cfg.Tokens, m.Tokens)
		mergeStrings(cfg.Partials, m.Templates)
		prefix = m.Assets.Prefix
		mergeStrings(files, m.Assets.Files)

		if variant, ok := m.Variants[selection.Variant]; ok {
			mergeStrings(cfg.Tokens, variant.Tokens)
			mergeStrings(cfg.Partials, variant.Templates)
			if variant.Assets.Prefix != "" {
				prefix = variant.Assets.Prefix
			}
			mergeStrings(files, variant.Assets.Files)
		}
	}

	for name, value := range cfg.Tokens {
		cfg.CSSVars[cssVarName(name)] = value
	}
	cfg.AssetURL = assetResolver(prefix, files)
	return cfg
}

// ResolveTheme asks selector for name/variant and flattens the result. A nil
// selector yields a nil config.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*ThemeConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("render: select theme %q/%q: %w", name, variant, err)
	}
	return ThemeConfigFromSelection(selection), nil
}

// CSSVarDeclarations renders the config's CSS variables as sorted
// "name: value;" declarations.
func CSSVarDeclarations(cfg *ThemeConfig) string {
	if cfg == nil || len(cfg.CSSVars) == 0 {
		return ""
	}
	names := make([]string, 0, len(cfg.CSSVars))
	for name := range cfg.CSSVars {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(sanitizeCSSValue(cfg.CSSVars[name]))
		b.WriteByte(';')
	}
	return b.String()
}

// ManifestSelector implements theme.ThemeSelector over a fixed set of
// manifests, falling back to a default theme and variant.
type ManifestSelector struct {
	mu             sync.RWMutex
	registry       manifestRegistrar
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// manifestRegistrar is the part of the go-theme registry used to validate
// manifests on registration.
type manifestRegistrar interface {
	Register(*theme.Manifest) error
}

// NewManifestSelector registers manifests. The first manifest is the default
// theme unless defaultTheme names another.
func NewManifestSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{
		registry:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   defaultTheme,
		defaultVariant: defaultVariant,
	}
	for _, m := range manifests {
		if err := s.Register(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds a manifest.
func (s *ManifestSelector) Register(m *theme.Manifest) error {
	if m == nil || m.Name == "" {
		return errors.New("render: theme manifest requires a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[m.Name]; exists {
		return fmt.Errorf("render: theme %q already registered", m.Name)
	}
	if err := s.registry.Register(m); err != nil {
		return fmt.Errorf("render: register theme %q: %w", m.Name, err)
	}
	s.manifests[m.Name] = m
	if s.defaultTheme == "" {
		s.defaultTheme = m.Name
	}
	return nil
}

// Select implements theme.ThemeSelector. An unknown variant falls back to the
// default variant, then to the bare manifest.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		name = s.defaultTheme
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not registered", name)
	}
	if variant == "" {
		variant = s.defaultVariant
	}
	if _, ok := m.Variants[variant]; !ok {
		variant = ""
		if _, ok := m.Variants[s.defaultVariant]; ok {
			variant = s.defaultVariant
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

func mergeStrings(dst, src map[string]string) {
	for key, value := range src {
		dst[key] = value
	}
}

func cssVarName(token string) string {
	name := strings.TrimPrefix(strings.TrimSpace(token), "--")
	name = strings.NewReplacer(".", "-", "_", "-", " ", "-").Replace(name)
	return "--" + strings.ToLower(name)
}

// sanitizeCSSValue drops characters that could close the declaration or the
// style element.
func sanitizeCSSValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>':
			return -1
		}
		return r
	}, value)
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(key string) string {
		if key == "" {
			return ""
		}
		file, ok := files[key]
		if !ok {
			if !strings.ContainsAny(key, "./") {
				return ""
			}
			file = key
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return prefix + "/" + strings.TrimLeft(file, "/")
	}
}
