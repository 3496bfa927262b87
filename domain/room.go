package domain

import "github.com/google/uuid"

// RoomID keys a live room. Rooms are the presence structure of an event, so
// a room id is the id of the event backing it.
type RoomID string

// Valid reports whether the identifier has the expected shape.
// Identifiers issued by the directory are UUIDs; anything else is rejected
// before it can touch the registry.
func (r RoomID) Valid() bool {
	return uuid.Validate(string(r)) == nil
}

func (r RoomID) String() string {
	return string(r)
}
