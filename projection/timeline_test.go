package projection

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"event-chat/domain"
	"event-chat/domain/event"
)

func broadcast(room domain.RoomID, body string) event.MessageBroadcast {
	return event.MessageBroadcast{Message: domain.Message{
		EventID: string(room),
		Body:    body,
	}}
}

func TestTimeline_KeepsLastMessagesPerRoom(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(3)
	ctx := context.Background()
	room := domain.RoomID("room-a")

	for i := 1; i <= 5; i++ {
		req.NoError(timeline.Consume(ctx, broadcast(room, fmt.Sprintf("m%d", i))))
	}

	recent := timeline.Recent(room)
	req.Len(recent, 3)
	req.Equal("m3", recent[0].Body)
	req.Equal("m5", recent[2].Body)
}

func TestTimeline_RoomsAreIndependent(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)
	ctx := context.Background()

	req.NoError(timeline.Consume(ctx, broadcast("room-a", "for A")))
	req.NoError(timeline.Consume(ctx, broadcast("room-b", "for B")))

	req.Len(timeline.Recent("room-a"), 1)
	req.Len(timeline.Recent("room-b"), 1)
	req.Nil(timeline.Recent("room-c"))
}

func TestTimeline_IgnoresNonBroadcastEvents(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)

	req.NoError(timeline.Consume(context.Background(),
		event.UserCountChanged{Room: "room-a", Count: 3}))

	req.Nil(timeline.Recent("room-a"))
}

func TestTimeline_RecentReturnsACopy(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)
	ctx := context.Background()
	room := domain.RoomID("room-a")

	req.NoError(timeline.Consume(ctx, broadcast(room, "original")))

	recent := timeline.Recent(room)
	recent[0].Body = "mutated"

	req.Equal("original", timeline.Recent(room)[0].Body)
}
