// Package events carries entity lifecycle notifications between the
// mutation paths and the UI-facing caches. One logical channel per entity
// kind; delivery order within a kind matches publish order. No ordering is
// guaranteed across kinds, and there is no replay: a subscriber that
// attaches late must do one full load before trusting increments.
package events

import "sync"

type Kind string

const (
	KindRoute      Kind = "route"
	KindDriver     Kind = "driver"
	KindVehicle    Kind = "vehicle"
	KindAssignment Kind = "assignment"
	KindIncident   Kind = "incident"
)

type Type int

const (
	Created Type = iota
	Updated
	Deleted
	StateChanged
)

func (t Type) String() string {
	switch t {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case StateChanged:
		return "state_changed"
	}
	return "unknown"
}

// Event is one lifecycle notification. Entity carries the full payload on
// Created, and the already-known new value on Updated when the publisher has
// it (saves subscribers a redundant remote read); it is nil on Deleted.
// NewState is set only on StateChanged.
type Event struct {
	Type     Type
	ID       string
	Entity   any
	NewState string
}

type Handler func(Event)

type subscription struct {
	id      int
	handler Handler
}

// Bus dispatches synchronously on the publisher's goroutine, after the
// remote write has succeeded — never before, and never speculatively.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[Kind][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]subscription)}
}

// Subscribe registers handler for one entity kind and returns its
// unsubscribe function.
func (b *Bus) Subscribe(kind Kind, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[kind]
		for i, sub := range list {
			if sub.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every subscriber of kind, in subscription order.
// Handlers run outside the bus lock so they may publish further events.
func (b *Bus) Publish(kind Kind, ev Event) {
	b.mu.Lock()
	handlers := make([]Handler, len(b.subs[kind]))
	for i, sub := range b.subs[kind] {
		handlers[i] = sub.handler
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
