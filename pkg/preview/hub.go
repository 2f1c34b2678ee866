// Package preview serves a rendered mind map over HTTP and reloads open
// browser tabs through Server-Sent Events whenever the tree file changes.
package preview

import (
	"fmt"
	"net/http"
	"sync"
)

// EventsPath is the SSE endpoint the preview page subscribes to.
const EventsPath = "/__preview__/events"

// Hub fans reload signals out to connected SSE clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan struct{}]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan struct{}]struct{}),
		done:    make(chan struct{}),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify sends a reload signal to every client. Clients that still have a
// pending signal are skipped.
func (h *Hub) Notify() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close disconnects all clients. Later connections return immediately.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ServeHTTP streams "connected" once and then one "reload" event per
// Notify until the client goes away or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-ch:
			fmt.Fprint(w, "event: reload\ndata: {\"action\":\"reload\"}\n\n")
			flusher.Flush()
		}
	}
}
