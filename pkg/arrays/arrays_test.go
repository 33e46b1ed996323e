package arrays

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-cmsform/pkg/dom"
)

type fixture struct {
	doc       *dom.Document
	sync      *Synchronizer
	hidden    *html.Node
	container *html.Node
	add       *html.Node
	events    []string
}

func newFixture(t *testing.T, key string, values []string, options ...Option) *fixture {
	t.Helper()
	doc := dom.New()
	f := &fixture{doc: doc}
	f.hidden = doc.Append(doc.Body(), doc.CreateElement("input", "type", "hidden", "id", key, "name", key, "p-model", key))
	f.container = doc.Append(doc.Body(), doc.CreateElement("div", "id", key+"-array-container"))
	f.add = doc.Append(f.container, doc.CreateElement("button", "type", "button", "class", "cms-array-add"))
	doc.AddEventListener(doc.Body(), dom.EventInput, func(ev *dom.Event) {
		if ev.Target == f.hidden {
			f.events = append(f.events, doc.Value(f.hidden))
		}
	})

	f.sync = New(doc, options...)
	if _, err := f.sync.Attach(Field{
		Key:       key,
		Values:    values,
		Hidden:    f.hidden,
		Container: f.container,
		AddButton: f.add,
	}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return f
}

func (f *fixture) inputs(t *testing.T, key string) []*html.Node {
	t.Helper()
	nodes, err := f.doc.QueryAll("//input[@data-array-key=" + dom.XPathLiteral(key) + "]")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return nodes
}

func (f *fixture) values(t *testing.T, key string) []string {
	t.Helper()
	var out []string
	for _, node := range f.inputs(t, key) {
		out = append(out, f.doc.Value(node))
	}
	return out
}

func (f *fixture) removeButton(t *testing.T, input *html.Node) *html.Node {
	t.Helper()
	button, err := f.doc.QueryWithin(input.Parent, "./button")
	if err != nil || button == nil {
		t.Fatalf("remove button not found: %v", err)
	}
	return button
}

func TestAttachRendersRowsAndSeedsHidden(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b"})

	if diff := cmp.Diff([]string{"a", "b"}, f.values(t, "tags")); diff != "" {
		t.Fatalf("item values mismatch (-want +got):\n%s", diff)
	}
	if got := f.doc.Value(f.hidden); got != "a,b" {
		t.Fatalf("hidden = %q, want a,b", got)
	}
	if f.container.LastChild != f.add {
		t.Fatalf("expected add button to stay last")
	}
	for i, input := range f.inputs(t, "tags") {
		idx, _ := f.doc.Attr(input, AttrArrayIndex)
		if idx != []string{"0", "1"}[i] {
			t.Fatalf("unexpected index %q at %d", idx, i)
		}
	}
}

func TestRemoveFirstItemUpdatesHidden(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b"})
	first := f.inputs(t, "tags")[0]

	f.doc.Click(f.removeButton(t, first))

	if got := f.doc.Value(f.hidden); got != "b" {
		t.Fatalf("hidden = %q, want b", got)
	}
	if diff := cmp.Diff([]string{"b"}, f.events); diff != "" {
		t.Fatalf("input events mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveAtAnyPosition(t *testing.T) {
	values := []string{"a", "b", "c", "d"}
	for pos := range values {
		f := newFixture(t, "tags", values)
		f.doc.Click(f.removeButton(t, f.inputs(t, "tags")[pos]))

		var remaining []string
		remaining = append(remaining, values[:pos]...)
		remaining = append(remaining, values[pos+1:]...)
		if got := f.doc.Value(f.hidden); got != strings.Join(remaining, ",") {
			t.Fatalf("remove %d: hidden = %q, want %q", pos, got, strings.Join(remaining, ","))
		}
	}
}

func TestAddThenFillAppends(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b"})

	f.doc.Click(f.add)
	if got := f.doc.Value(f.hidden); got != "a,b" {
		t.Fatalf("empty item must be skipped, hidden = %q", got)
	}
	inputs := f.inputs(t, "tags")
	if len(inputs) != 3 {
		t.Fatalf("expected 3 inputs, got %d", len(inputs))
	}
	added := inputs[2]
	if f.doc.Focused() != added {
		t.Fatalf("expected focus on the new input")
	}
	if idx, _ := f.doc.Attr(added, AttrArrayIndex); idx != "2" {
		t.Fatalf("unexpected index %q", idx)
	}
	if added.Parent.NextSibling != f.add {
		t.Fatalf("expected new row before the add button")
	}

	f.doc.Input(added, "c")
	if got := f.doc.Value(f.hidden); got != "a,b,c" {
		t.Fatalf("hidden = %q, want a,b,c", got)
	}
}

func TestRemovedThenAddedItemsGetFreshIDs(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b"})
	list, _ := f.sync.List("tags")
	firstID := list.Items()[0].ID

	if err := f.sync.RemoveItem("tags", firstID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	item, err := f.sync.AddItem("tags")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.ID == firstID || item.ID == list.Items()[0].ID {
		t.Fatalf("expected fresh id, got %q", item.ID)
	}
	// index reuses the control count, id does not
	if idx, _ := f.doc.Attr(f.sync.Input("tags", item.ID), AttrArrayIndex); idx != "1" {
		t.Fatalf("unexpected index %q", idx)
	}
	if err := f.sync.RemoveItem("tags", firstID); !errors.Is(err, ErrUnknownItem) {
		t.Fatalf("expected ErrUnknownItem, got %v", err)
	}
}

func TestCommaValuesAreFlaggedAndSkipped(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b,c", "d"})
	if got := f.doc.Value(f.hidden); got != "a,d" {
		t.Fatalf("hidden = %q, want a,d", got)
	}
	bad := f.inputs(t, "tags")[1]
	if v, _ := f.doc.Attr(bad, AttrInvalid); v != "true" {
		t.Fatalf("expected aria-invalid on rejected item")
	}
	if v, _ := f.doc.Attr(bad, AttrError); v != ErrorDelimiter {
		t.Fatalf("expected delimiter error marker, got %q", v)
	}

	f.doc.Input(bad, "bc")
	if got := f.doc.Value(f.hidden); got != "a,bc,d" {
		t.Fatalf("hidden = %q, want a,bc,d", got)
	}
	if _, ok := f.doc.Attr(bad, AttrInvalid); ok {
		t.Fatalf("expected marker to clear once the value is accepted")
	}
}

func TestJSONCodecPreservesCommas(t *testing.T) {
	f := newFixture(t, "tags", []string{"a", "b,c"}, WithCodec(JSONCodec{}))
	if got := f.doc.Value(f.hidden); got != `["a","b,c"]` {
		t.Fatalf("hidden = %q", got)
	}
	if diff := cmp.Diff([]string{"a", "b,c"}, JSONCodec{}.Decode(f.doc.Value(f.hidden))); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestResyncWithoutHiddenIsNoop(t *testing.T) {
	f := newFixture(t, "tags", []string{"a"})
	f.doc.Remove(f.hidden)

	res, err := f.sync.Resync("tags")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if diff := cmp.Diff(Result{}, res); diff != "" {
		t.Fatalf("expected empty result (-want +got):\n%s", diff)
	}
	if len(f.events) != 0 {
		t.Fatalf("expected no events, got %v", f.events)
	}
}

func TestResyncUnknownField(t *testing.T) {
	f := newFixture(t, "tags", nil)
	if _, err := f.sync.Resync("nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := f.sync.AddItem("nope"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestResyncAdoptsContainerInputsInDocumentOrder(t *testing.T) {
	f := newFixture(t, "tags", []string{"a"})
	first := f.inputs(t, "tags")[0].Parent
	f.doc.InsertBefore(f.container, f.doc.CreateElement("input", "data-array-key", "tags", "value", "z"), first)
	// outside the container: belongs to some other form
	f.doc.InsertBefore(f.doc.Body(), f.doc.CreateElement("input", "data-array-key", "tags", "value", "x"), f.hidden)

	res, err := f.sync.Resync("tags")
	if err != nil {
		t.Fatalf("resync: %v", err)
	}
	if res.Encoded != "z,a" {
		t.Fatalf("encoded = %q, want z,a", res.Encoded)
	}
	list, _ := f.sync.List("tags")
	if diff := cmp.Diff([]string{"z", "a"}, list.Values()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestScopedFieldsShareKeyWithoutInterference(t *testing.T) {
	doc := dom.New()
	attach := func(values ...string) (*Synchronizer, *html.Node, *html.Node) {
		scope := doc.Append(doc.Body(), doc.CreateElement("fieldset"))
		hidden := doc.Append(scope, doc.CreateElement("input", "type", "hidden", "id", "tags"))
		container := doc.Append(scope, doc.CreateElement("div"))
		add := doc.Append(container, doc.CreateElement("button", "type", "button"))
		sync := New(doc)
		if _, err := sync.Attach(Field{
			Key:       "tags",
			Values:    values,
			Hidden:    hidden,
			Container: container,
			AddButton: add,
			Scope:     scope,
		}); err != nil {
			t.Fatalf("attach: %v", err)
		}
		return sync, hidden, add
	}
	first, firstHidden, _ := attach("a", "b")
	second, secondHidden, secondAdd := attach("c")

	list, _ := first.List("tags")
	doc.Input(first.Input("tags", list.Items()[1].ID), "B")
	if got := doc.Value(firstHidden); got != "a,B" {
		t.Fatalf("first hidden = %q, want a,B", got)
	}
	if got := doc.Value(secondHidden); got != "c" {
		t.Fatalf("second hidden = %q, want c", got)
	}

	doc.Click(secondAdd)
	doc.Input(doc.Focused(), "d")
	if got := doc.Value(secondHidden); got != "c,d" {
		t.Fatalf("second hidden = %q, want c,d", got)
	}
	if got := doc.Value(firstHidden); got != "a,B" {
		t.Fatalf("first hidden changed to %q", got)
	}
	other, _ := second.List("tags")
	if diff := cmp.Diff([]string{"c", "d"}, other.Values()); diff != "" {
		t.Fatalf("second list mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyKeyAttachesWithoutHiddenUpdates(t *testing.T) {
	f := newFixture(t, "", []string{"a"})
	if got := f.doc.Value(f.hidden); got != "a" {
		t.Fatalf("hidden seed = %q, want a", got)
	}

	f.doc.Input(f.inputs(t, "")[0], "b")
	list, _ := f.sync.List("")
	if diff := cmp.Diff([]string{"b"}, list.Values()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if got := f.doc.Value(f.hidden); got != "a" {
		t.Fatalf("hidden = %q, an empty id never resolves", got)
	}
	if len(f.events) != 0 {
		t.Fatalf("expected no events, got %v", f.events)
	}
}

func TestCommaCodecRoundTrip(t *testing.T) {
	lists := [][]string{
		{"a"},
		{"a", "b", "c"},
		{"hello world", "x y"},
		{},
	}
	codec := CommaCodec{}
	for _, list := range lists {
		encoded, rejected := codec.Encode(list)
		if len(rejected) != 0 {
			t.Fatalf("unexpected rejection for %v", list)
		}
		if diff := cmp.Diff(list, codec.Decode(encoded)); diff != "" {
			t.Fatalf("round trip mismatch for %v (-want +got):\n%s", list, diff)
		}
	}
}

func TestListReorderAndIDs(t *testing.T) {
	l := NewList("k", []string{"x", "y", "z"})
	ids := []string{l.Items()[2].ID, l.Items()[0].ID}
	if err := l.Reorder(ids); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if diff := cmp.Diff([]string{"z", "x"}, l.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if got := l.Append("w").ID; got != "k-3" {
		t.Fatalf("expected monotonic id k-3, got %q", got)
	}
	if err := l.Reorder([]string{"missing"}); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "comma", "comma": "comma", "JSON": "json"} {
		codec, err := CodecByName(name)
		if err != nil {
			t.Fatalf("CodecByName(%q): %v", name, err)
		}
		if codec.Name() != want {
			t.Fatalf("CodecByName(%q) = %s, want %s", name, codec.Name(), want)
		}
	}
	if _, err := CodecByName("pipe"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}
