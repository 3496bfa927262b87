package domain

import "time"

// SendMessage is a sender's intent to post into an event room. UserID and
// EventID arrive as raw client strings; resolution against the directory
// happens inside the relay, never here.
type SendMessage struct {
	SessionID string
	UserID    string `validate:"required,uuid"`
	EventID   string `validate:"required,uuid"`
	Body      string `validate:"required"`
	At        time.Time
}

func (s SendMessage) RoomID() RoomID {
	return RoomID(s.EventID)
}
