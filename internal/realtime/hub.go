package realtime

import (
	"sync"

	"annotate-backend/internal/shared/telemetry"
)

// Hub groups live connections into per-document channels and broadcasts
// events to them. It owns no persistence and keeps no event history: a
// member that is not connected when an event fires simply misses it.
//
// Membership is mutated concurrently by independent connection lifecycles;
// all channel state is guarded by one mutex. Holding the lock across the
// buffered channel sends keeps per-channel delivery in emission order.
type Hub struct {
	mu       sync.Mutex
	channels map[string]map[*Client]struct{}
	closed   bool
}

// NewHub constructs a Hub. One hub is created per process.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*Client]struct{})}
}

// Join adds the client to a document channel. It reports whether the client
// was admitted: a client whose send channel was already closed (dropped as a
// slow consumer, or disconnected) must never re-enter a channel, or the next
// broadcast would send on the closed channel.
func (h *Hub) Join(c *Client, documentID string) bool {
	if documentID == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || c.closed {
		return false
	}
	members, ok := h.channels[documentID]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[documentID] = members
	}
	members[c] = struct{}{}
	c.channels[documentID] = struct{}{}
	return true
}

// Leave removes the client from a document channel.
func (h *Hub) Leave(c *Client, documentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, documentID)
}

// Disconnect removes the client from every channel it joined and releases
// its send buffer.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveAllLocked(c)
	c.closeSendLocked()
}

func (h *Hub) leaveLocked(c *Client, documentID string) {
	members, ok := h.channels[documentID]
	if !ok {
		return
	}
	delete(members, c)
	delete(c.channels, documentID)
	if len(members) == 0 {
		delete(h.channels, documentID)
	}
}

// Publish broadcasts an event to every member of the document's channel,
// sender included. Delivery is best-effort and never returns an error.
func (h *Hub) Publish(documentID, event string, payload any) {
	h.broadcast(documentID, event, payload, nil)
}

// PublishExcept broadcasts to every member except one connection; used for
// presence signals that must not echo to their sender.
func (h *Hub) PublishExcept(documentID, event string, payload any, except *Client) {
	h.broadcast(documentID, event, payload, except)
}

func (h *Hub) broadcast(documentID, event string, payload any, except *Client) {
	data, err := encodeEvent(documentID, event, payload)
	if err != nil {
		telemetry.Error("realtime.encode", map[string]any{
			"document_id": documentID,
			"event":       event,
			"err":         err.Error(),
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for member := range h.channels[documentID] {
		if member == except {
			continue
		}
		select {
		case member.send <- data:
		default:
			// Slow consumer: drop the connection rather than queue.
			member.closeSendLocked()
			h.leaveAllLocked(member)
		}
	}
}

// deliver sends one pre-encoded frame to a single client. The hub mutex
// guards the closed flag, so the send can never hit a closed channel.
func (h *Hub) deliver(c *Client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.closeSendLocked()
		h.leaveAllLocked(c)
	}
}

func (h *Hub) leaveAllLocked(c *Client) {
	for documentID := range c.channels {
		h.leaveLocked(c, documentID)
	}
}

// Shutdown detaches every connection. New joins are refused afterwards.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, members := range h.channels {
		for member := range members {
			member.closeSendLocked()
			member.channels = make(map[string]struct{})
		}
	}
	h.channels = make(map[string]map[*Client]struct{})
}

// memberCount reports channel membership; used by tests.
func (h *Hub) memberCount(documentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[documentID])
}
