// Package binding marks controls for an external reactive binder and offers a
// small observer that sees what such a binder would see.
package binding

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
)

// DefaultAttribute is the attribute a reactive binder watches.
const DefaultAttribute = "p-model"

// Bind sets the binding attribute on node. An empty attr means
// DefaultAttribute.
func Bind(doc *dom.Document, node *html.Node, key, attr string) {
	if doc == nil || node == nil {
		return
	}
	doc.SetAttr(node, attributeOrDefault(attr), key)
}

// Change describes one observed update.
type Change struct {
	Key      string
	Value    string
	Previous string
}

// Option configures a Store.
type Option func(*Store)

// WithAttribute changes the attribute the store looks for.
func WithAttribute(attr string) Option {
	return func(s *Store) {
		s.attr = attributeOrDefault(attr)
	}
}

// WithLogger attaches a logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.Named("binding")
		}
	}
}

// Store records the latest value per bound key. Reads and writes are safe
// from multiple goroutines; Watch and Seed must run on the goroutine that owns
// the document.
type Store struct {
	attr   string
	logger *zap.Logger

	mu          sync.RWMutex
	values      map[string]string
	subscribers map[int]func(Change)
	nextID      int
}

// NewStore returns an empty store.
func NewStore(options ...Option) *Store {
	s := &Store{
		attr:        DefaultAttribute,
		logger:      zap.NewNop(),
		values:      make(map[string]string),
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Attribute returns the binding attribute the store observes.
func (s *Store) Attribute() string {
	return s.attr
}

// Watch listens for bubbling input events under root and records the value
// of every bound target.
func (s *Store) Watch(doc *dom.Document, root *html.Node) {
	if doc == nil || root == nil {
		return
	}
	doc.AddEventListener(root, dom.EventInput, func(ev *dom.Event) {
		key, ok := doc.Attr(ev.Target, s.attr)
		if !ok || key == "" {
			return
		}
		s.Set(key, doc.Value(ev.Target))
	})
}

// Seed records the current value of every bound control below root without
// notifying subscribers.
func (s *Store) Seed(doc *dom.Document, root *html.Node) error {
	if doc == nil || root == nil {
		return nil
	}
	nodes, err := doc.QueryAllWithin(root, "descendant-or-self::*[@"+s.attr+"]")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, node := range nodes {
		key, _ := doc.Attr(node, s.attr)
		if key == "" {
			continue
		}
		s.values[key] = doc.Value(node)
	}
	return nil
}

// Get returns the value recorded for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Values returns a copy of every recorded value.
func (s *Store) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Set records value for key and notifies subscribers when it changed.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	previous, existed := s.values[key]
	if existed && previous == value {
		s.mu.Unlock()
		return
	}
	s.values[key] = value
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("binding changed", zap.String("key", key), zap.String("value", value))
	change := Change{Key: key, Value: value, Previous: previous}
	for _, fn := range subs {
		fn(change)
	}
}

// Subscribe registers fn for every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func attributeOrDefault(attr string) string {
	if attr == "" {
		return DefaultAttribute
	}
	return attr
}
