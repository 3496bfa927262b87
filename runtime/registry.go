package runtime

import (
	"sync"

	"event-chat/contract"
	"event-chat/domain"
)

type Set map[string]struct{}

// Registry is the single owner of room membership. It maps rooms to member
// session ids and sessions to their delivery sinks. Membership is a presence
// concept, so nothing here is persisted.
//
// The registry is constructed once at process start and handed to the relay
// and the gateway by reference; it is never reached through package state.
type Registry struct {
	mu      sync.RWMutex
	sinks   map[string]contract.EventSink // session id -> sink
	members map[domain.RoomID]Set         // room -> member session ids
	joined  map[string]int                // session id -> number of rooms joined
}

func NewRegistry() *Registry {
	return &Registry{
		sinks:   make(map[string]contract.EventSink),
		members: make(map[domain.RoomID]Set),
		joined:  make(map[string]int),
	}
}

// Join adds a session to a room and returns the new member count. Rejoining
// is a no-op on the set: the count is unchanged and added is false, which is
// what callers use to avoid duplicate count broadcasts.
func (r *Registry) Join(sessionID string, roomID domain.RoomID, sink contract.EventSink) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[sessionID] = sink

	room, ok := r.members[roomID]
	if !ok {
		room = make(Set)
		r.members[roomID] = room
	}
	if _, member := room[sessionID]; member {
		return len(room), false
	}
	room[sessionID] = struct{}{}
	r.joined[sessionID]++
	return len(room), true
}

// Leave removes a session from a room and returns the new member count.
// Leaving a room the session never joined is a no-op and removed is false.
// An emptied room is evicted so the maps can't grow with dead rooms; the
// room is recreated lazily on the next join.
func (r *Registry) Leave(sessionID string, roomID domain.RoomID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.members[roomID]
	if !ok {
		return 0, false
	}
	if _, member := room[sessionID]; !member {
		return len(room), false
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.members, roomID)
	}

	r.joined[sessionID]--
	if r.joined[sessionID] <= 0 {
		delete(r.joined, sessionID)
		delete(r.sinks, sessionID)
	}
	return len(room), true
}

// MemberCount returns the current member count, 0 if the room doesn't exist.
func (r *Registry) MemberCount(roomID domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[roomID])
}

// SinksForRoom resolves a room into the sinks of its currently connected
// members. A member whose sink is already gone simply isn't included;
// delivery is best-effort by design. Returns nil for an unknown room.
func (r *Registry) SinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.members[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for sessionID := range room {
		if sink, exists := r.sinks[sessionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Rooms returns the ids of rooms that currently have members.
func (r *Registry) Rooms() []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.RoomID, 0, len(r.members))
	for roomID := range r.members {
		rooms = append(rooms, roomID)
	}
	return rooms
}
