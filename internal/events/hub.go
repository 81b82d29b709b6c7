// Package events implements the in-process change feed stores publish to.
package events

import (
	"sync"
	"time"
)

type (
	Entity string
	Op     string
)

const (
	EntityTransaction Entity = "transaction"
	EntityBudget      Entity = "budget"
	EntityChat        Entity = "chat"
	EntityGoal        Entity = "goal"
	EntityInsight     Entity = "insight"

	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one mutation of the store. ID is zero for bulk operations.
type Change struct {
	Entity Entity    `json:"entity"`
	Op     Op        `json:"op"`
	ID     int64     `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

// Hub fans changes out to subscribers. Slow subscribers drop events rather
// than block writers.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[int]chan Change), buffer: buffer}
}

// Subscribe returns a channel of changes and a function that cancels the subscription.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Change, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers c to every subscriber without blocking.
func (h *Hub) Publish(entity Entity, op Op, id int64) {
	c := Change{Entity: entity, Op: op, ID: id, At: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
