package event

import (
	"event-chat/domain"
)

// DomainEvent is anything the fanout can deliver to room members.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessageBroadcast carries a persisted message to every member of its room.
// It is only emitted after the message has been durably stored.
type MessageBroadcast struct {
	Message domain.Message
}

func (m MessageBroadcast) RoomID() domain.RoomID {
	return m.Message.Room()
}

// UserCountChanged announces the new member count of a room after a join or
// a leave.
type UserCountChanged struct {
	Room  domain.RoomID
	Count int
}

func (u UserCountChanged) RoomID() domain.RoomID {
	return u.Room
}

// SubmissionRejected terminates a failed submission. It is delivered to the
// submitting connection only and never goes through the room fanout.
type SubmissionRejected struct {
	Room   domain.RoomID
	Reason string
}

func (s SubmissionRejected) RoomID() domain.RoomID {
	return s.Room
}
