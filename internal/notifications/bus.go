// Package notifications provides in-process pub/sub delivery of lesson
// workflow events to interested parties (dashboard inboxes, logging,
// metrics). Delivery is synchronous and at-most-once; losing an event never
// affects lesson state.
package notifications

import (
	"sync"
	"time"
)

// Event is a message addressed to the actor who did not initiate a move
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	LessonID    string    `json:"lessonId"`
	RecipientID int       `json:"recipientId"`
	ActorID     int       `json:"actorId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Handler reacts to a published event
type Handler func(event Event)

// Bus is an explicit, passed-in fan-out bus. It is constructed once at
// process start and wired through constructors; subscribers added after an
// event was published do not receive it.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

// NewBus constructs an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber, synchronously
func (b *Bus) Publish(event Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
