package arrays

import (
	"fmt"
	"strconv"
)

// Item is one entry of a list field. ID is stable for the lifetime of the
// item and never reused within its list.
type Item struct {
	ID    string
	Value string
}

// List is the ordered state of one list field.
type List struct {
	key   string
	items []Item
	next  int
}

// NewList seeds a list with values, assigning ids in order.
func NewList(key string, values []string) *List {
	l := &List{key: key}
	for _, value := range values {
		l.Append(value)
	}
	return l
}

// Key returns the field key.
func (l *List) Key() string { return l.key }

// Append adds value at the end with a fresh id.
func (l *List) Append(value string) Item {
	item := Item{ID: l.key + "-" + strconv.Itoa(l.next), Value: value}
	l.next++
	l.items = append(l.items, item)
	return item
}

// Remove deletes the item with id and reports whether it existed.
func (l *List) Remove(id string) bool {
	idx := l.Index(id)
	if idx < 0 {
		return false
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return true
}

// Set updates the value of id.
func (l *List) Set(id, value string) bool {
	idx := l.Index(id)
	if idx < 0 {
		return false
	}
	l.items[idx].Value = value
	return true
}

// Items returns a copy of the items in order.
func (l *List) Items() []Item {
	return append([]Item(nil), l.items...)
}

// Values returns the item values in order.
func (l *List) Values() []string {
	out := make([]string, len(l.items))
	for i, item := range l.items {
		out[i] = item.Value
	}
	return out
}

// Len returns the item count.
func (l *List) Len() int { return len(l.items) }

// Index returns the position of id, or -1.
func (l *List) Index(id string) int {
	for i, item := range l.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Reorder makes the list hold exactly ids, in that order. Items whose id is
// missing from ids are dropped.
func (l *List) Reorder(ids []string) error {
	byID := make(map[string]Item, len(l.items))
	for _, item := range l.items {
		byID[item.ID] = item
	}
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return fmt.Errorf("arrays: %s: unknown item %q", l.key, id)
		}
		delete(byID, id)
		out = append(out, item)
	}
	l.items = out
	return nil
}
