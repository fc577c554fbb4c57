// Package viewcache keeps a UI surface's local copy of one entity kind in
// sync with lifecycle events, avoiding full reloads. Each surface owns its
// cache exclusively; two surfaces showing the same kind never share one,
// because each applies its own filter and ordering.
package viewcache

import "fleetsmart/internal/events"

// Cache is an ordered sequence plus an id index. After any event sequence
// its id-set equals the remote state as of the last delivered event; it is
// never fresher than that. Late attachers must call Load once before
// applying increments.
type Cache[T any] struct {
	idOf   func(T) string
	filter func(T) bool

	order []T
	index map[string]int
}

// New builds a cache. idOf extracts an entity's id; filter (optional, may be
// nil) restricts the view, e.g. to available vehicles only.
func New[T any](idOf func(T) string, filter func(T) bool) *Cache[T] {
	return &Cache[T]{
		idOf:   idOf,
		filter: filter,
		index:  make(map[string]int),
	}
}

// Load replaces the entire cache from a full read. Order is preserved as
// given; filtered-out entities are skipped.
func (c *Cache[T]) Load(entities []T) {
	c.order = c.order[:0]
	clear(c.index)
	for _, e := range entities {
		if c.filter != nil && !c.filter(e) {
			continue
		}
		c.index[c.idOf(e)] = len(c.order)
		c.order = append(c.order, e)
	}
}

// Apply mutates the cache from one lifecycle event. Events whose Entity
// payload does not match the cache's type are ignored (a StateChanged with
// no payload clears nothing on its own — filtered views resolve those
// through ApplyStateChange).
func (c *Cache[T]) Apply(ev events.Event) {
	switch ev.Type {
	case events.Created:
		entity, ok := ev.Entity.(T)
		if !ok {
			return
		}
		c.upsert(entity)
	case events.Updated:
		entity, ok := ev.Entity.(T)
		if !ok {
			return
		}
		c.upsert(entity)
	case events.Deleted:
		c.remove(ev.ID)
	}
}

// ApplyStateChange handles a StateChanged event for filtered views: when the
// publisher passes the updated entity it is re-evaluated against the filter,
// entering or leaving the view as needed. Unfiltered caches treat it as a
// plain update.
func (c *Cache[T]) ApplyStateChange(ev events.Event) {
	entity, ok := ev.Entity.(T)
	if !ok {
		return
	}
	c.upsert(entity)
}

func (c *Cache[T]) upsert(entity T) {
	id := c.idOf(entity)
	if c.filter != nil && !c.filter(entity) {
		c.remove(id)
		return
	}
	if i, ok := c.index[id]; ok {
		c.order[i] = entity
		return
	}
	c.index[id] = len(c.order)
	c.order = append(c.order, entity)
}

func (c *Cache[T]) remove(id string) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	c.order = append(c.order[:i], c.order[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.order); j++ {
		c.index[c.idOf(c.order[j])] = j
	}
}

// Get returns the cached entity by id.
func (c *Cache[T]) Get(id string) (T, bool) {
	if i, ok := c.index[id]; ok {
		return c.order[i], true
	}
	var zero T
	return zero, false
}

// Items returns the view in order. The returned slice is a copy.
func (c *Cache[T]) Items() []T {
	out := make([]T, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Cache[T]) Len() int { return len(c.order) }

// IDs returns the cached id-set in view order.
func (c *Cache[T]) IDs() []string {
	out := make([]string, len(c.order))
	for i, e := range c.order {
		out[i] = c.idOf(e)
	}
	return out
}
