package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const subscriberBuffer = 32

// BroadcastHook fans engine events out to in-process subscribers. It keeps
// the latest event that carried a snapshot and replays it to each new
// subscriber, so a reconnecting browser resynchronizes without waiting for
// the next change.
type BroadcastHook struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	latest *EngineEvent
}

type subscriber struct {
	ch    chan EngineEvent
	types map[string]struct{}
}

func (s *subscriber) wants(eventType string) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]*subscriber),
	}
}

// EngineUpdated satisfies RefreshHook. Slow subscribers miss events rather
// than stall the engine.
func (h *BroadcastHook) EngineUpdated(_ context.Context, event EngineEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event.Snapshot != nil {
		latest := event
		h.latest = &latest
	}
	for _, sub := range h.subs {
		if !sub.wants(event.Type) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of every engine event and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan EngineEvent, func()) {
	return h.SubscribeTypes()
}

// SubscribeTypes is Subscribe restricted to the given event types. No types
// means all events.
func (h *BroadcastHook) SubscribeTypes(types ...string) (<-chan EngineEvent, func()) {
	sub := &subscriber{ch: make(chan EngineEvent, subscriberBuffer)}
	for _, t := range types {
		if t = strings.TrimSpace(t); t != "" {
			if sub.types == nil {
				sub.types = make(map[string]struct{}, len(types))
			}
			sub.types[t] = struct{}{}
		}
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = sub
	if h.latest != nil && sub.wants(h.latest.Type) {
		sub.ch <- *h.latest
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// requestedTypes reads the optional ?types=filters,order filter.
func requestedTypes(r *http.Request) []string {
	raw := r.URL.Query().Get("types")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams engine events as JSON until
// the client goes away.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.SubscribeTypes(requestedTypes(r)...)
	defer cancel()

	// Browsers never send on this socket; reading only detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams engine events as Server-Sent Events named after the event
// type.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.SubscribeTypes(requestedTypes(r)...)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
