package store

import "sync"

// listenerSet tracks change listeners per collection. Both store
// implementations embed one; notify fires callbacks on a dedicated goroutine
// so listeners never run on the mutating caller's goroutine, matching the
// remote listener contract.
type listenerSet struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func()
}

func (l *listenerSet) listen(collection string, onChange func()) ListenerHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[string]map[int]func())
	}
	if l.subs[collection] == nil {
		l.subs[collection] = make(map[int]func())
	}
	id := l.next
	l.next++
	l.subs[collection][id] = onChange
	return &listenerHandle{set: l, collection: collection, id: id}
}

func (l *listenerSet) notify(collection string) {
	l.mu.Lock()
	callbacks := make([]func(), 0, len(l.subs[collection]))
	for _, cb := range l.subs[collection] {
		callbacks = append(callbacks, cb)
	}
	l.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	go func() {
		for _, cb := range callbacks {
			cb()
		}
	}()
}

type listenerHandle struct {
	set        *listenerSet
	collection string
	id         int
	once       sync.Once
}

func (h *listenerHandle) Close() {
	h.once.Do(func() {
		h.set.mu.Lock()
		defer h.set.mu.Unlock()
		if subs, ok := h.set.subs[h.collection]; ok {
			delete(subs, h.id)
			if len(subs) == 0 {
				delete(h.set.subs, h.collection)
			}
		}
	})
}
