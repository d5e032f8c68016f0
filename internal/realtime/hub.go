package realtime

import (
	"encoding/json"
	"sync"

	"github.com/noah-isme/forum-api/internal/observability"
)

const subscriberBufferSize = 16

// Event is one message pushed to a connected user.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// NewEvent encodes data as the payload of a named event.
func NewEvent(name string, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: raw}, nil
}

// Directory tracks live connections per user on this process.
type Directory interface {
	Register(userID uint) (<-chan Event, func())
	Deliver(userID uint, event Event) bool
	Connections(userID uint) int
}

// Hub is the in-memory Directory shared by every websocket and SSE connection
// of the process. Delivery never blocks: a full subscriber buffer drops the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan Event]struct{}
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint]map[chan Event]struct{})}
}

// Register adds a connection for userID. The returned function removes it and
// closes the channel; calling it more than once is safe.
func (h *Hub) Register(userID uint) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	if _, ok := h.subscribers[userID]; !ok {
		h.subscribers[userID] = make(map[chan Event]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()
	observability.RealtimeConnectionsActive().Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subscribers, ok := h.subscribers[userID]; ok {
				delete(subscribers, ch)
				if len(subscribers) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
			observability.RealtimeConnectionsActive().Dec()
		})
	}
}

// Deliver pushes event to every connection of userID and reports whether at
// least one connection accepted it.
func (h *Hub) Deliver(userID uint, event Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.subscribers[userID]
	if len(subscribers) == 0 {
		observability.RealtimePushTotal().WithLabelValues("offline").Inc()
		return false
	}

	delivered := false
	for ch := range subscribers {
		select {
		case ch <- event:
			delivered = true
			observability.RealtimePushTotal().WithLabelValues("delivered").Inc()
		default:
			observability.RealtimePushTotal().WithLabelValues("dropped").Inc()
		}
	}
	return delivered
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
