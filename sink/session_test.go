package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"event-chat/domain/event"
)

func TestSession_BuffersEvents(t *testing.T) {
	req := require.New(t)
	session := NewSession(2)
	ctx := context.Background()

	first := event.UserCountChanged{Room: "room-a", Count: 1}
	second := event.UserCountChanged{Room: "room-a", Count: 2}

	req.NoError(session.Consume(ctx, first))
	req.NoError(session.Consume(ctx, second))

	req.Equal(first, <-session.Events())
	req.Equal(second, <-session.Events())
}

func TestSession_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	session := NewSession(1)
	ctx := context.Background()

	req.NoError(session.Consume(ctx, event.UserCountChanged{Room: "room-a", Count: 1}))

	// When the buffer is full, Consume fails instead of blocking
	err := session.Consume(ctx, event.UserCountChanged{Room: "room-a", Count: 2})
	req.Error(err)

	// The buffered event is untouched
	evt := <-session.Events()
	req.Equal(event.UserCountChanged{Room: "room-a", Count: 1}, evt)
}

func TestSession_HonorsContextCancellation(t *testing.T) {
	req := require.New(t)
	session := NewSession(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := session.Consume(ctx, event.UserCountChanged{Room: "room-a", Count: 1})
	req.Error(err)
}
