// Package domain contains core concepts of the event chat system.
// This file defines Message records and related rules.
// Messages are immutable once created and are never mutated or deleted.
package domain

import "time"

// Message is a persisted chat message. AuthorName is denormalized at write
// time so history stays readable even if the user record changes later.
type Message struct {
	ID         string
	EventID    string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

func (m Message) Room() RoomID {
	return RoomID(m.EventID)
}
