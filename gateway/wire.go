package gateway

import (
	"time"

	"github.com/samber/lo"

	"event-chat/domain"
)

// Inbound frame envelope. joinEvent carries its event id at the top level,
// sendMessage nests its payload under data, matching the client protocol.
type inboundFrame struct {
	Type    string             `json:"type"`
	EventID string             `json:"eventId,omitempty"`
	Data    sendMessagePayload `json:"data,omitempty"`
}

type sendMessagePayload struct {
	UserID  string `json:"userId"`
	EventID string `json:"eventId"`
	Message string `json:"message"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	EventID string `json:"eventId,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type wireError struct {
	Error string `json:"error"`
}

type wireAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// wireMessage is the message envelope clients receive, both in live
// receiveMessage frames and in the history endpoint.
type wireMessage struct {
	ID        string     `json:"id"`
	UserID    wireAuthor `json:"userId"`
	EventID   string     `json:"eventId"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
}

func toWireMessage(m domain.Message) wireMessage {
	return wireMessage{
		ID:        m.ID,
		UserID:    wireAuthor{ID: m.AuthorID, Name: m.AuthorName},
		EventID:   m.EventID,
		Message:   m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func toWireMessages(messages []domain.Message) []wireMessage {
	return lo.Map(messages, func(m domain.Message, _ int) wireMessage {
		return toWireMessage(m)
	})
}

// wireEvent is the public view of an event. The allow-list itself stays
// server-side; clients probe it through the check-phone endpoint.
type wireEvent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Live        bool      `json:"live"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toWireEvent(e domain.Event) wireEvent {
	return wireEvent{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Image:       e.Image,
		Live:        e.Live,
		CreatedAt:   e.CreatedAt,
	}
}
