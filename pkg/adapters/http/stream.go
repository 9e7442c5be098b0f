package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/dealreg/pkg/domain"
)

// StreamManager fans session view diffs out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	last        map[string]domain.View
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		last:        make(map[string]domain.View),
		logger:      logger,
	}
}

// Subscribe registers a channel for a session. The returned func unsubscribes and closes it.
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

// Publish diffs v against the previous view of its session and broadcasts the change.
// It has the shape of a wizard change listener.
func (sm *StreamManager) Publish(v domain.View) {
	sm.mu.Lock()
	prev, seen := sm.last[v.SessionID]
	if v.Submitted {
		delete(sm.last, v.SessionID)
	} else {
		sm.last[v.SessionID] = v
	}
	sm.mu.Unlock()

	var diff *domain.ViewDiff
	if seen {
		diff = domain.Diff(&prev, &v)
	} else {
		diff = domain.Diff(nil, &v)
	}
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("StreamManager: failed to encode diff", "session_id", v.SessionID, "err", err)
		return
	}
	sm.Broadcast(v.SessionID, string(data))
}

// Forget drops the cached view of a session.
func (sm *StreamManager) Forget(sessionID string) {
	sm.mu.Lock()
	delete(sm.last, sessionID)
	sm.mu.Unlock()
}

// Broadcast sends msg to every subscriber of the session. Slow clients miss messages.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}
