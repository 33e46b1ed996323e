// Package tui edits a page interactively in the terminal. Each panel is built
// into a headless document so list edits run through the same synchronizer as
// the browser form, and the result is read back from the document.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-cmsform/pkg/arrays"
	"github.com/goliatone/go-cmsform/pkg/binding"
	"github.com/goliatone/go-cmsform/pkg/dom"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/render"
	"github.com/goliatone/go-cmsform/pkg/schema"
)

// Renderer implements render.Renderer for terminal-driven sessions.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	formOptions       []form.Option
	submitTransformer SubmitTransformer
	theme             Theme
	logger            *zap.Logger

	builder *form.Builder
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if _, ok := ParseOutputFormat(string(r.outputFormat)); !ok {
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	r.logger = r.logger.Named("tui")
	formOptions := append([]form.Option{form.WithLogger(r.logger)}, r.formOptions...)
	r.builder = form.NewBuilder(formOptions...)
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every field of every panel and returns the edited
// payloads.
func (r *Renderer) Render(ctx context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	page = opts.Apply(page)
	if len(page.Panels) == 0 {
		return nil, ErrNoPanels
	}

	state := NewState()
	defer state.Close()

	for _, panel := range page.Panels {
		ps, err := r.buildPanel(state, panel)
		if err != nil {
			return nil, err
		}
		if len(page.Panels) > 1 {
			if err := r.info(ctx, panelTitle(panel)); err != nil {
				return nil, err
			}
		}
		for _, field := range panel.Schema.Fields() {
			if field.Value.IsList() {
				err = r.promptList(ctx, ps, field.Key)
			} else {
				err = r.promptScalar(ctx, ps, field.Key)
			}
			if err != nil {
				return nil, err
			}
		}
		if changed := ps.Changed(); len(changed) > 0 {
			if err := r.info(ctx, "Updated: "+strings.Join(changed, ", ")); err != nil {
				return nil, err
			}
		}
		r.logger.Debug("panel edited", zap.String("title", panelTitle(panel)), zap.Strings("changed", ps.Changed()))
	}

	return r.serialize(state)
}

func (r *Renderer) buildPanel(state *State, panel render.Panel) (*PanelState, error) {
	doc := dom.New(dom.WithLogger(r.logger))
	container := doc.Append(doc.Body(), doc.CreateElement("div"))
	f, err := r.builder.Build(doc, panel.Schema, container, panelTitle(panel))
	if err != nil {
		return nil, fmt.Errorf("tui: build panel %q: %w", panelTitle(panel), err)
	}
	store := binding.NewStore(binding.WithAttribute(r.builder.BindAttribute()), binding.WithLogger(r.logger))
	ps, err := state.Add(panel, f, store)
	if err != nil {
		return nil, fmt.Errorf("tui: observe panel %q: %w", panelTitle(panel), err)
	}
	return ps, nil
}

func (r *Renderer) promptScalar(ctx context.Context, ps *PanelState, key string) error {
	doc := ps.Form.Document()
	node := ps.Form.Control(key)
	if node == nil {
		return fmt.Errorf("tui: %s: control not found", key)
	}
	typ, _ := doc.Attr(node, "type")
	numeric := typ == "number"

	cfg := InputConfig{Message: key, Default: doc.Value(node)}
	if numeric {
		cfg.Help = "numeric value"
		cfg.Validator = validateNumber
	}
	for {
		response, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		if numeric {
			if err := validateNumber(response); err != nil {
				_ = r.errorf(ctx, "Invalid %s: %v", key, err)
				continue
			}
			response = strings.TrimSpace(response)
		}
		doc.Input(node, response)
		return nil
	}
}

// promptList shows the item menu until the user picks Done.
func (r *Renderer) promptList(ctx context.Context, ps *PanelState, key string) error {
	sync := ps.Form.Synchronizer()
	list, ok := sync.List(key)
	if !ok {
		return fmt.Errorf("tui: %w: %q", arrays.ErrUnknownField, key)
	}
	doc := ps.Form.Document()
	hidden := ps.Form.Control(key)

	for {
		items := list.Items()
		options := make([]string, 0, len(items)+3)
		for i, item := range items {
			options = append(options, fmt.Sprintf("Edit %d: %s", i+1, displayItem(item.Value)))
		}
		addIdx := len(options)
		options = append(options, "Add item")
		removeIdx := -1
		if len(items) > 0 {
			removeIdx = len(options)
			options = append(options, "Remove item")
		}
		doneIdx := len(options)
		options = append(options, "Done")

		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s [%s]", key, doc.Value(hidden)),
			Options:      options,
			DefaultIndex: doneIdx,
		})
		if err != nil {
			return err
		}

		switch {
		case choice >= 0 && choice < len(items):
			err = r.editItem(ctx, ps, key, items[choice])
		case choice == addIdx:
			var item arrays.Item
			item, err = sync.AddItem(key)
			if err == nil {
				err = r.editItem(ctx, ps, key, item)
			}
		case choice == removeIdx:
			err = r.removeItem(ctx, ps, key, items)
		case choice == doneIdx:
			return nil
		default:
			return fmt.Errorf("tui: %s: unknown menu choice %d", key, choice)
		}
		if err != nil {
			return err
		}
	}
}

func (r *Renderer) editItem(ctx context.Context, ps *PanelState, key string, item arrays.Item) error {
	doc := ps.Form.Document()
	input := ps.Form.Synchronizer().Input(key, item.ID)
	if input == nil {
		return fmt.Errorf("tui: %w: %s/%s", arrays.ErrUnknownItem, key, item.ID)
	}
	response, err := r.driver.Input(ctx, InputConfig{
		Message: key + " item",
		Default: item.Value,
	})
	if err != nil {
		return err
	}
	doc.Input(input, response)
	if invalid, _ := doc.Attr(input, arrays.AttrInvalid); invalid == "true" {
		_ = r.errorf(ctx, "%s: %q contains the list delimiter and is left out", key, response)
	}
	return nil
}

func (r *Renderer) removeItem(ctx context.Context, ps *PanelState, key string, items []arrays.Item) error {
	options := make([]string, 0, len(items)+1)
	for i, item := range items {
		options = append(options, fmt.Sprintf("%d: %s", i+1, displayItem(item.Value)))
	}
	options = append(options, "Cancel")
	choice, err := r.driver.Select(ctx, SelectConfig{
		Message:      "Remove which item?",
		Options:      options,
		DefaultIndex: len(items),
	})
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(items) {
		return nil
	}
	ok, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Remove %s?", displayItem(items[choice].Value)),
		Default: true,
	})
	if err != nil || !ok {
		return err
	}
	return ps.Form.Synchronizer().RemoveItem(key, items[choice].ID)
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) errorf(ctx context.Context, format string, args ...any) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+fmt.Sprintf(format, args...))
}

type editedPanel struct {
	name   string
	schema schema.FieldSchema
}

func (r *Renderer) serialize(state *State) ([]byte, error) {
	panels := state.Panels()
	edited := make([]editedPanel, 0, len(panels))
	for i, ps := range panels {
		snapshot := ps.Form.Snapshot()
		if r.submitTransformer != nil {
			var err error
			snapshot, err = r.submitTransformer(snapshot)
			if err != nil {
				return nil, fmt.Errorf("tui: submit transformer: %w", err)
			}
		}
		name := ps.Panel.PayloadID
		if name == "" {
			name = "panel" + strconv.Itoa(i)
		}
		edited = append(edited, editedPanel{name: name, schema: snapshot})
	}

	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(edited)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(edited)), nil
	default:
		return jsonBytes(edited)
	}
}

func flattenForm(panels []editedPanel) string {
	values := url.Values{}
	for _, panel := range panels {
		prefix := ""
		if len(panels) > 1 {
			prefix = panel.name + "."
		}
		for _, field := range panel.schema.Fields() {
			if field.Value.IsList() {
				for _, item := range field.Value.Items {
					values.Add(prefix+field.Key, item)
				}
				continue
			}
			values.Set(prefix+field.Key, field.Value.Text)
		}
	}
	return values.Encode()
}

func prettyPrint(panels []editedPanel) string {
	var b strings.Builder
	for _, panel := range panels {
		prefix := ""
		if len(panels) > 1 {
			prefix = panel.name + "."
		}
		for _, field := range panel.schema.Fields() {
			if field.Value.IsList() {
				for idx, item := range field.Value.Items {
					fmt.Fprintf(&b, "%s%s[%d]=%s\n", prefix, field.Key, idx, item)
				}
				continue
			}
			fmt.Fprintf(&b, "%s%s=%s\n", prefix, field.Key, field.Value.Text)
		}
	}
	return b.String()
}

// jsonBytes keeps field order. Several panels become one object keyed by
// payload id.
func jsonBytes(panels []editedPanel) ([]byte, error) {
	if len(panels) == 1 {
		return panels[0].schema.MarshalJSON()
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, panel := range panels {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(panel.name)
		if err != nil {
			return nil, err
		}
		data, err := panel.schema.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("tui: encode %s: %w", panel.name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func validateNumber(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
		return fmt.Errorf("%q is not a number", value)
	}
	return nil
}

func panelTitle(panel render.Panel) string {
	if panel.Title != "" {
		return panel.Title
	}
	return form.DefaultTitle
}

func displayItem(value string) string {
	if value == "" {
		return "(empty)"
	}
	return value
}
