package tui

import (
	"sort"
	"sync"

	"github.com/goliatone/go-cmsform/pkg/binding"
	"github.com/goliatone/go-cmsform/pkg/form"
	"github.com/goliatone/go-cmsform/pkg/render"
)

// State tracks the headless forms of one editing session and which bound keys
// changed while prompting.
type State struct {
	panels []*PanelState
}

// PanelState is one edited panel: its built form and the binding store that
// observes it.
type PanelState struct {
	Panel render.Panel
	Form  *form.Form
	Store *binding.Store

	mu      sync.Mutex
	changed map[string]bool
	stop    func()
}

// NewState returns an empty session.
func NewState() *State {
	return &State{}
}

// Add registers a built panel. The store is seeded from the form and every
// later change is recorded.
func (s *State) Add(panel render.Panel, f *form.Form, store *binding.Store) (*PanelState, error) {
	ps := &PanelState{
		Panel:   panel,
		Form:    f,
		Store:   store,
		changed: make(map[string]bool),
	}
	if err := store.Seed(f.Document(), f.Fieldset()); err != nil {
		return nil, err
	}
	store.Watch(f.Document(), f.Fieldset())
	ps.stop = store.Subscribe(func(change binding.Change) {
		ps.mu.Lock()
		ps.changed[change.Key] = true
		ps.mu.Unlock()
	})
	s.panels = append(s.panels, ps)
	return ps, nil
}

// Panels returns the registered panels in order.
func (s *State) Panels() []*PanelState {
	return append([]*PanelState(nil), s.panels...)
}

// Close stops change tracking on every panel.
func (s *State) Close() {
	for _, ps := range s.panels {
		if ps.stop != nil {
			ps.stop()
		}
	}
}

// Changed returns the keys whose bound value changed, sorted.
func (ps *PanelState) Changed() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	keys := make([]string, 0, len(ps.changed))
	for key := range ps.changed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
