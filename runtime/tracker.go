package runtime

import (
	"sync"

	"event-chat/domain"

	"github.com/google/uuid"
)

// Tracker records, per live connection, which rooms it has joined so the
// cleanup on disconnect is exact. It owns session identity; nothing else in
// the system allocates session ids.
type Tracker struct {
	mu     sync.Mutex
	joined map[string]map[domain.RoomID]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{joined: make(map[string]map[domain.RoomID]struct{})}
}

// OnConnect allocates a fresh opaque session id with an empty joined set.
func (t *Tracker) OnConnect() string {
	sessionID := uuid.NewString()
	t.mu.Lock()
	t.joined[sessionID] = make(map[domain.RoomID]struct{})
	t.mu.Unlock()
	return sessionID
}

// OnJoin records a room membership for later cleanup. Idempotent. A join
// for a session the tracker has never seen is recorded too, so cleanup
// stays exhaustive even if a caller skips OnConnect.
func (t *Tracker) OnJoin(sessionID string, roomID domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rooms, ok := t.joined[sessionID]
	if !ok {
		rooms = make(map[domain.RoomID]struct{})
		t.joined[sessionID] = rooms
	}
	rooms[roomID] = struct{}{}
}

// OnLeave drops one membership record without ending the session.
func (t *Tracker) OnLeave(sessionID string, roomID domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rooms, ok := t.joined[sessionID]; ok {
		delete(rooms, roomID)
	}
}

// OnDisconnect ends the session and returns every room it had joined, in no
// particular order. The caller drives the per-room leave; the tracker's own
// state for the session is gone regardless of how those leaves go.
func (t *Tracker) OnDisconnect(sessionID string) []domain.RoomID {
	t.mu.Lock()
	defer t.mu.Unlock()

	rooms, ok := t.joined[sessionID]
	if !ok {
		return nil
	}
	delete(t.joined, sessionID)

	out := make([]domain.RoomID, 0, len(rooms))
	for roomID := range rooms {
		out = append(out, roomID)
	}
	return out
}

// Sessions returns the number of sessions currently tracked.
func (t *Tracker) Sessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.joined)
}
