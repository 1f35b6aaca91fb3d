// Package realtime provides the change-notification fabric: an in-process
// event bus that mutation handlers publish to, and a WebSocket hub that fans
// those events out to connected clients. Delivery is at-least-once within the
// process; consumers must tolerate duplicate notifications.
package realtime

import (
	"sync"
)

// Change event types
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is a change notification for a single record. Payload carries the
// record's new state (and nothing else - consumers that need the old state
// re-derive it).
type Event struct {
	Scope    string                 `json:"scope"` // "posts", "post:<id>", "users", "follows"
	Type     string                 `json:"type"`  // INSERT, UPDATE, DELETE
	RecordID string                 `json:"record_id"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Bus is a simple in-process publish/subscribe fan-out keyed by scope.
// Subscribers are invoked synchronously in publish order; last writer wins
// for any derived state they maintain.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]func(Event)
	nextID int
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[int]func(Event)),
	}
}

// Subscribe registers fn for all events published to scope. The returned
// function removes the subscription; calling it more than once is harmless.
func (b *Bus) Subscribe(scope string, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[scope] == nil {
		b.subs[scope] = make(map[int]func(Event))
	}
	id := b.nextID
	b.nextID++
	b.subs[scope][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[scope]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(b.subs, scope)
			}
		}
	}
}

// Publish delivers the event to every subscriber of its scope. Subscriber
// callbacks run on the publisher's goroutine; they must not block.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.subs[e.Scope]))
	for _, fn := range b.subs[e.Scope] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

// SubscriberCount reports how many subscriptions exist for a scope
func (b *Bus) SubscriberCount(scope string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[scope])
}
