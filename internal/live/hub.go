// Package live fans out committed seat-total changes to active readers.
// The hub is a plain observer registry; the Redis bridge carries updates
// between client sessions so every writer's commit reaches every subscriber
// without a manual refresh.
package live

import (
	"sync"
)

// Update kinds. Seat-total changes and event edits share one channel so a
// subscriber sees every change to the event it watches.
const (
	KindSeats        = "seats"
	KindEventUpdated = "event_updated"
)

type Update struct {
	Kind        string `json:"kind"`
	EventID     string `json:"event_id"`
	SeatsBooked int    `json:"seats_booked"`
}

type subscriber struct {
	id int
	fn func(Update)
}

type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]subscriber)}
}

// Subscribe registers a callback for one event's seat updates and returns
// the unsubscribe handle. Callbacks run on the publisher's goroutine.
func (h *Hub) Subscribe(eventID string, fn func(Update)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[eventID] = append(h.subs[eventID], subscriber{id: id, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[eventID]
		for i, sub := range list {
			if sub.id == id {
				h.subs[eventID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(h.subs[eventID]) == 0 {
			delete(h.subs, eventID)
		}
	}
}

// Publish delivers the update to every subscriber of its event.
func (h *Hub) Publish(u Update) {
	h.mu.Lock()
	list := make([]subscriber, len(h.subs[u.EventID]))
	copy(list, h.subs[u.EventID])
	h.mu.Unlock()

	for _, sub := range list {
		sub.fn(u)
	}
}
