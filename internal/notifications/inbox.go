package notifications

import "sync"

// Inbox buffers events per recipient for dashboard polling. It is a
// live-session convenience, not an audit log: the buffer is bounded and the
// oldest events are dropped when a recipient falls behind.
type Inbox struct {
	mu      sync.Mutex
	cap     int
	pending map[int][]Event
}

// NewInbox creates an inbox keeping at most capacity events per recipient
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = 50
	}
	return &Inbox{
		cap:     capacity,
		pending: make(map[int][]Event),
	}
}

// Handle stores the event for its recipient; use as a Bus subscriber
func (i *Inbox) Handle(event Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	queue := append(i.pending[event.RecipientID], event)
	if len(queue) > i.cap {
		queue = queue[len(queue)-i.cap:]
	}
	i.pending[event.RecipientID] = queue
}

// Drain returns and clears the pending events for a recipient
func (i *Inbox) Drain(recipientID int) []Event {
	i.mu.Lock()
	defer i.mu.Unlock()

	queue := i.pending[recipientID]
	delete(i.pending, recipientID)
	return queue
}
