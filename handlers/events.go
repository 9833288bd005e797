package handlers

import (
	"net/http"
	"sync"
	"time"

	"shopchat/sse"
)

// Store-wide event names broadcast to /api/events subscribers.
const (
	EventCatalogReloaded = "catalog_reloaded"
)

// EventBus is a simple pub/sub for broadcasting store-wide events: catalog
// reloads and order status changes.
type EventBus struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives broadcast events.
func (eb *EventBus) Subscribe() chan string {
	ch := make(chan string, 16)
	eb.mu.Lock()
	eb.clients[ch] = struct{}{}
	eb.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel.
func (eb *EventBus) Unsubscribe(ch chan string) {
	eb.mu.Lock()
	delete(eb.clients, ch)
	eb.mu.Unlock()
}

// Broadcast sends an event to all subscribers.
func (eb *EventBus) Broadcast(event string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for ch := range eb.clients {
		select {
		case ch <- event:
		default:
			// Drop if buffer full
		}
	}
}

// storeEvents streams store-wide events over SSE until the client leaves.
// GET /api/events
func (h *apiHandler) storeEvents(w http.ResponseWriter, r *http.Request) {
	sseWriter := sse.NewWriter(w)
	if sseWriter == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := h.deps.EventBus.Subscribe()
	defer h.deps.EventBus.Unsubscribe(ch)

	ctx := r.Context()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			sseWriter.SendEvent(event, map[string]string{})
		case <-ticker.C:
			sseWriter.SendComment("keep-alive")
		}
	}
}
