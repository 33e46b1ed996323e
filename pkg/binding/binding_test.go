package binding

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cmsform/pkg/dom"
)

func TestStoreWatchRecordsBoundInputs(t *testing.T) {
	doc := dom.New()
	form := doc.Append(doc.Body(), doc.CreateElement("form"))
	title := doc.Append(form, doc.CreateElement("input", "id", "title"))
	Bind(doc, title, "title", "")
	plain := doc.Append(form, doc.CreateElement("input"))

	store := NewStore()
	store.Watch(doc, form)

	var changes []Change
	unsubscribe := store.Subscribe(func(c Change) { changes = append(changes, c) })

	doc.Input(title, "Hello")
	doc.Input(plain, "ignored")
	doc.Input(title, "Hello")
	doc.Input(title, "Bye")

	want := []Change{
		{Key: "title", Value: "Hello"},
		{Key: "title", Value: "Bye", Previous: "Hello"},
	}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	unsubscribe()
	doc.Input(title, "Later")
	if len(changes) != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %d", len(changes))
	}
	if got, _ := store.Get("title"); got != "Later" {
		t.Fatalf("expected store to keep recording, got %q", got)
	}
}

func TestSeedRecordsWithoutNotifying(t *testing.T) {
	doc := dom.New()
	form := doc.Append(doc.Body(), doc.CreateElement("div"))
	doc.Append(form, doc.CreateElement("input", "x-bind", "count", "value", "5"))
	doc.Append(form, doc.CreateElement("input", "x-bind", "tags", "type", "hidden", "value", "a,b"))

	store := NewStore(WithAttribute("x-bind"))
	notified := false
	store.Subscribe(func(Change) { notified = true })

	if err := store.Seed(doc, form); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if notified {
		t.Fatalf("seed must not notify")
	}
	want := map[string]string{"count": "5", "tags": "a,b"}
	if diff := cmp.Diff(want, store.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Set("k", string(rune('a'+i)))
				_ = store.Values()
			}
		}(i)
	}
	wg.Wait()
	if _, ok := store.Get("k"); !ok {
		t.Fatalf("expected key to be recorded")
	}
}
