package sink

import (
	"context"
	"fmt"

	"event-chat/domain/event"
)

// Session buffers events for one live connection. The transport's write
// loop drains Events; the fanout and the relay write through Consume.
type Session struct {
	events chan event.DomainEvent
}

func NewSession(bufferSize int) *Session {
	return &Session{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by the fanout (and directly by the relay for
// sender-only rejections). If the connection can't drain fast enough the
// event is dropped for this client only; delivery is best-effort and a slow
// reader must not stall the room.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("session buffer full")
	}
}

// Events exposes the delivery channel to the transport's write loop.
func (s *Session) Events() <-chan event.DomainEvent {
	return s.events
}
