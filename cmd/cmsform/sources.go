package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	schemaloader "github.com/goliatone/go-cmsform/internal/schema/loader"
	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/orchestrator"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/renderers/vanilla"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

const httpTimeout = 15 * time.Second

// parseSource maps a command argument to a schema source. "-" reads stdin.
func parseSource(arg string, stdin io.Reader) (schema.Source, error) {
	path := strings.TrimSpace(arg)
	switch {
	case path == "":
		return nil, errors.New("empty schema source")
	case path == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return schema.InlineSource{Name: "stdin", Data: data}, nil
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return schema.SourceFromURL(path), nil
	default:
		return schema.SourceFromFile(path), nil
	}
}

// request turns the arguments into an orchestrator request. Panel and payload
// ids from the config apply to the first panel only.
func (s *session) request(args []string, stdin io.Reader) (orchestrator.Request, error) {
	req := orchestrator.Request{
		Title:        s.cfg.Title,
		ThemeName:    s.cfg.Theme.Name,
		ThemeVariant: s.cfg.Theme.Variant,
	}
	for i, arg := range args {
		src, err := parseSource(arg, stdin)
		if err != nil {
			return orchestrator.Request{}, err
		}
		panel := orchestrator.PanelRequest{
			Source:     src,
			Component:  s.cfg.Component,
			EmbeddedID: s.cfg.EmbeddedID,
		}
		if i == 0 {
			panel.ID = s.cfg.PanelID
			panel.PayloadID = s.cfg.PayloadID
			panel.Title = s.cfg.Title
		}
		req.Panels = append(req.Panels, panel)
	}
	return req, nil
}

func (s *session) formOptions() ([]form.Option, error) {
	codec, err := arrays.CodecByName(s.cfg.Codec)
	if err != nil {
		return nil, err
	}
	return []form.Option{
		form.WithCodec(codec),
		form.WithBindAttribute(s.cfg.BindAttribute),
		form.WithLogger(s.logger),
	}, nil
}

func (s *session) vanillaOptions(extra ...vanilla.Option) ([]vanilla.Option, error) {
	formOptions, err := s.formOptions()
	if err != nil {
		return nil, err
	}
	options := []vanilla.Option{
		vanilla.WithFormOptions(formOptions...),
		vanilla.WithToggleID(s.cfg.ToggleID),
		vanilla.WithLogger(s.logger),
	}
	return append(options, extra...), nil
}

// themeSelector builds a single-manifest selector from theme.tokens, or nil
// when no tokens are configured.
func (s *session) themeSelector() (*render.ManifestSelector, error) {
	if len(s.cfg.Theme.Tokens) == 0 {
		return nil, nil
	}
	name := s.cfg.Theme.Name
	if name == "" {
		name = "cmsform"
	}
	return render.NewManifestSelector(name, s.cfg.Theme.Variant, &theme.Manifest{
		Name:    name,
		Version: "1.0.0",
		Tokens:  s.cfg.Theme.Tokens,
	})
}

func (s *session) orchestrator(renderers ...render.Renderer) (*orchestrator.Orchestrator, error) {
	registry, err := render.NewRegistry(renderers...)
	if err != nil {
		return nil, err
	}
	options := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithLoader(schemaloader.New(schema.NewLoaderOptions(
			schema.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
			schema.WithRequestTimeout(httpTimeout),
		))),
		orchestrator.WithLogger(s.logger),
	}
	if len(renderers) > 0 {
		options = append(options, orchestrator.WithDefaultRenderer(renderers[0].Name()))
	}
	selector, err := s.themeSelector()
	if err != nil {
		return nil, err
	}
	if selector != nil {
		options = append(options, orchestrator.WithThemeSelector(selector))
	}
	if s.cfg.Preset != "" {
		data, err := os.ReadFile(s.cfg.Preset)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}
	s.logger.Debug("orchestrator ready", zap.Strings("renderers", registry.List()))
	return orchestrator.New(options...), nil
}
