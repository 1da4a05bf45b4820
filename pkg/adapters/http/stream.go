package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener for one session. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of listeners of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	slog.Debug("StreamManager: Broadcasting", "session_id", sessionID, "payload_size", len(msg))

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// The optional "watch" query parameter is a comma separated list of
// "selected", "active" and "palette"; diffs touching none of them are skipped.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		slog.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := chi.URLParam(r, "id")
	slog.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.SelectionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "selected":
			if diff.Selected != nil {
				return true
			}
		case "active":
			if len(diff.Activated) > 0 || len(diff.Released) > 0 {
				return true
			}
		case "palette":
			if diff.Palette != nil {
				return true
			}
		}
	}
	return false
}
