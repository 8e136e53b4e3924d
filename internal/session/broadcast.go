package session

import (
	"log/slog"
	"sync"
	"time"
)

// Event announces a change to a session.
type Event struct {
	SessionID string    `json:"sessionId"`
	Revision  uint64    `json:"revision"`
	Session   View      `json:"session"`
	Timestamp time.Time `json:"timestamp"`
}

// Broadcaster fans session events out to subscribers. Slow subscribers miss
// events rather than block publishers.
type Broadcaster struct {
	mu        sync.Mutex
	clients   map[string]map[chan Event]struct{} // session ID -> subscriber channels
	lastEvent map[string]Event
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients:   make(map[string]map[chan Event]struct{}),
		lastEvent: make(map[string]Event),
	}
}

// Subscribe registers for events of one session. The last event, if any, is
// delivered straight away.
func (b *Broadcaster) Subscribe(sessionID string) chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 10)
	if b.clients[sessionID] == nil {
		b.clients[sessionID] = make(map[chan Event]struct{})
	}
	b.clients[sessionID][ch] = struct{}{}

	if last, ok := b.lastEvent[sessionID]; ok {
		ch <- last
	}

	slog.Debug("Subscriber added", "session_id", sessionID, "subscribers", len(b.clients[sessionID]))
	return ch
}

// Unsubscribe removes and closes a subscriber channel. It is a no-op when the
// channel was already closed by Close.
func (b *Broadcaster) Unsubscribe(sessionID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.clients[sessionID]
	if !ok {
		return
	}
	if _, ok := clients[ch]; !ok {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(b.clients, sessionID)
	}
}

// Publish delivers an event to the session's subscribers.
func (b *Broadcaster) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastEvent[event.SessionID] = event
	for ch := range b.clients[event.SessionID] {
		select {
		case ch <- event:
		default:
			slog.Warn("Subscriber channel full, dropping event", "session_id", event.SessionID, "revision", event.Revision)
		}
	}
}

// Close disconnects every subscriber of a session and forgets its last event.
func (b *Broadcaster) Close(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.clients[sessionID] {
		close(ch)
	}
	delete(b.clients, sessionID)
	delete(b.lastEvent, sessionID)
}
