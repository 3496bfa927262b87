// Package projection builds local read models from observed events.
// It never emits events and never talks to storage or the transport.
package projection

import (
	"context"
	"sync"

	"event-chat/domain"
	"event-chat/domain/event"
)

// Timeline keeps the most recent broadcast messages per room. It is a
// permanent fanout sink feeding the stats endpoint's recent-activity view;
// the durable history lives in the message repository, not here.
type Timeline struct {
	mu     sync.RWMutex
	limit  int
	byRoom map[domain.RoomID][]domain.Message
}

func NewTimeline(limit int) *Timeline {
	if limit <= 0 {
		limit = 20
	}
	return &Timeline{
		limit:  limit,
		byRoom: make(map[domain.RoomID][]domain.Message),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	room := broadcast.RoomID()
	messages := append(t.byRoom[room], broadcast.Message)
	if len(messages) > t.limit {
		messages = messages[len(messages)-t.limit:]
	}
	t.byRoom[room] = messages
	return nil
}

// Recent returns a copy of the room's latest messages, oldest first.
func (t *Timeline) Recent(room domain.RoomID) []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	messages, ok := t.byRoom[room]
	if !ok {
		return nil
	}
	copied := make([]domain.Message, len(messages))
	copy(copied, messages)
	return copied
}
