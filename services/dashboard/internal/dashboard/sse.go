package dashboard

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// SSE event sent to browsers after a realtime trigger has been applied.
const sseRefreshEvent = "refresh"

const (
	sseBuffer    = 8
	sseKeepalive = 30 * time.Second
)

// Hub fans trigger names out to connected browsers. Slow subscribers miss
// events instead of blocking the broadcaster.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan string
	logger aqm.Logger
}

func NewHub(logger aqm.Logger) *Hub {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Hub{subs: make(map[string]chan string), logger: logger}
}

func (h *Hub) Subscribe(id string) <-chan string {
	ch := make(chan string, sseBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[id] = ch
	return ch
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) Broadcast(name string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- name:
		default:
			h.logger.Info("subscriber channel full, dropping event", "subscriber_id", id, "event", name)
		}
	}
}

// Subscribers returns the number of connected browsers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP streams refresh events to one browser until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	events := h.Subscribe(subscriberID)
	defer h.Unsubscribe(subscriberID)

	h.logger.Debug("new SSE connection", "subscriber_id", subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	ticker := time.NewTicker(sseKeepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("SSE client disconnected", "subscriber_id", subscriberID)
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)
		case name, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, sseRefreshEvent, name)
		}
	}
}

// sendSSEEvent prefixes every data line as the event stream format requires.
func sendSSEEvent(w http.ResponseWriter, eventType, data string) {
	fmt.Fprintf(w, "event: %s\n", eventType)
	for _, line := range strings.Split(strings.TrimSpace(data), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprintf(w, "\n")
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
