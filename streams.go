package atelier

import (
	"sync"

	"github.com/aretw0/atelier/pkg/domain"
)

// streamManager fans session events out to subscribers.
// Slow subscribers miss events rather than stall the publisher.
type streamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Event]struct{} // SessionID -> set of channels
}

func newStreamManager() *streamManager {
	return &streamManager{
		subscribers: make(map[string]map[chan domain.Event]struct{}),
	}
}

func (sm *streamManager) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Event, 64)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan domain.Event]struct{})
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

// Broadcast reports whether at least one subscriber received the event.
func (sm *streamManager) Broadcast(sessionID string, ev domain.Event) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	delivered := false
	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- ev:
			delivered = true
		default:
		}
	}
	return delivered
}

// CloseAll closes every subscriber channel.
func (sm *streamManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, subs := range sm.subscribers {
		for ch := range subs {
			close(ch)
		}
		delete(sm.subscribers, id)
	}
}
