package dom

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Event types dispatched by the helpers in this package.
const (
	EventInput = "input"
	EventClick = "click"
)

// Event mirrors the subset of DOM events the form runtime needs.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node
	Bubbles       bool

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event.
type Listener func(*Event)

// AddEventListener registers fn for events of the given type on node.
func (d *Document) AddEventListener(node *html.Node, eventType string, fn Listener) {
	if node == nil || fn == nil || eventType == "" {
		return
	}
	byType, ok := d.listeners[node]
	if !ok {
		byType = make(map[string][]Listener)
		d.listeners[node] = byType
	}
	byType[eventType] = append(byType[eventType], fn)
}

// Dispatch delivers ev to target and, when ev.Bubbles is set, to each
// ancestor in turn. Listeners run synchronously in registration order.
func (d *Document) Dispatch(target *html.Node, ev *Event) {
	if target == nil || ev == nil {
		return
	}
	ev.Target = target
	d.logger.Debug("dispatch",
		zap.String("type", ev.Type),
		zap.String("target", describe(target)),
		zap.Bool("bubbles", ev.Bubbles),
	)

	for node := target; node != nil; node = node.Parent {
		listeners := d.listeners[node][ev.Type]
		if len(listeners) > 0 {
			ev.CurrentTarget = node
			snapshot := append([]Listener(nil), listeners...)
			for _, fn := range snapshot {
				fn(ev)
			}
		}
		if ev.stopped || !ev.Bubbles {
			break
		}
	}
	ev.CurrentTarget = nil
}

// Click dispatches a bubbling click event on node.
func (d *Document) Click(node *html.Node) {
	d.Dispatch(node, &Event{Type: EventClick, Bubbles: true})
}

// Input sets the control value and dispatches a bubbling input event, the same
// sequence a browser produces when a user types.
func (d *Document) Input(node *html.Node, value string) {
	if node == nil {
		return
	}
	d.SetValue(node, value)
	d.Dispatch(node, &Event{Type: EventInput, Bubbles: true})
}

// HasClass reports whether node carries class.
func (d *Document) HasClass(node *html.Node, class string) bool {
	for _, token := range classTokens(node) {
		if token == class {
			return true
		}
	}
	return false
}

// AddClass appends class when missing.
func (d *Document) AddClass(node *html.Node, class string) {
	if node == nil || class == "" || d.HasClass(node, class) {
		return
	}
	setAttr(node, "class", strings.Join(append(classTokens(node), class), " "))
}

// ToggleClass flips class on node and returns whether it is now present.
func (d *Document) ToggleClass(node *html.Node, class string) bool {
	if node == nil || class == "" {
		return false
	}
	tokens := classTokens(node)
	keep := tokens[:0]
	removed := false
	for _, token := range tokens {
		if token == class {
			removed = true
			continue
		}
		keep = append(keep, token)
	}
	if !removed {
		keep = append(keep, class)
	}
	if len(keep) == 0 {
		d.RemoveAttr(node, "class")
	} else {
		setAttr(node, "class", strings.Join(keep, " "))
	}
	return !removed
}

func classTokens(node *html.Node) []string {
	value, _ := getAttr(node, "class")
	return strings.Fields(value)
}

func describe(node *html.Node) string {
	if node == nil {
		return ""
	}
	if node.Type != html.ElementNode {
		return "#text"
	}
	if id, ok := getAttr(node, "id"); ok && id != "" {
		return node.Data + "#" + id
	}
	return node.Data
}
