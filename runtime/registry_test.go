package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"event-chat/domain"
	"event-chat/sink"
)

func TestRegistry_JoinIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := domain.RoomID("room-a")
	s := sink.NewSession(1)

	// When the same session joins twice
	count, added := registry.Join("session-1", room, s)
	req.Equal(1, count)
	req.True(added)

	count, added = registry.Join("session-1", room, s)

	// Then the second join changes nothing
	req.Equal(1, count)
	req.False(added)
	req.Equal(1, registry.MemberCount(room))
}

func TestRegistry_CountsPerRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomA := domain.RoomID("room-a")
	roomB := domain.RoomID("room-b")

	registry.Join("session-1", roomA, sink.NewSession(1))
	registry.Join("session-2", roomA, sink.NewSession(1))
	registry.Join("session-1", roomB, sink.NewSession(1))

	req.Equal(2, registry.MemberCount(roomA))
	req.Equal(1, registry.MemberCount(roomB))
	req.Len(registry.SinksForRoom(roomA), 2)
	req.Len(registry.Rooms(), 2)
}

func TestRegistry_LeaveUnknownRoomIsNoop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	count, removed := registry.Leave("session-1", domain.RoomID("ghost"))

	req.Equal(0, count)
	req.False(removed)
}

func TestRegistry_EmptyRoomIsEvicted(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room := domain.RoomID("room-a")

	registry.Join("session-1", room, sink.NewSession(1))
	count, removed := registry.Leave("session-1", room)

	req.Equal(0, count)
	req.True(removed)
	req.Empty(registry.Rooms())
	req.Nil(registry.SinksForRoom(room))
}

func TestRegistry_SinkDroppedWithLastMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomA := domain.RoomID("room-a")
	roomB := domain.RoomID("room-b")
	s := sink.NewSession(1)

	registry.Join("session-1", roomA, s)
	registry.Join("session-1", roomB, s)
	registry.Join("session-2", roomB, s)

	// When the session leaves one of its two rooms
	registry.Leave("session-1", roomA)

	// Then it is still reachable through the other
	req.Len(registry.SinksForRoom(roomB), 2)

	registry.Leave("session-1", roomB)
	req.Len(registry.SinksForRoom(roomB), 1)
}
