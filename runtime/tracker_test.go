package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"event-chat/domain"
)

func TestTracker_ConnectAllocatesUniqueSessions(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	first := tracker.OnConnect()
	second := tracker.OnConnect()

	req.NotEqual(first, second)
	req.NoError(uuid.Validate(first))
	req.Equal(2, tracker.Sessions())
}

func TestTracker_DisconnectReturnsEveryJoinedRoom(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	session := tracker.OnConnect()

	tracker.OnJoin(session, domain.RoomID("room-a"))
	tracker.OnJoin(session, domain.RoomID("room-b"))
	// Rejoining must not produce a duplicate cleanup entry.
	tracker.OnJoin(session, domain.RoomID("room-a"))

	rooms := tracker.OnDisconnect(session)

	req.ElementsMatch([]domain.RoomID{"room-a", "room-b"}, rooms)
	req.Equal(0, tracker.Sessions())

	// A second disconnect finds nothing to clean up.
	req.Nil(tracker.OnDisconnect(session))
}

func TestTracker_LeaveRemovesSingleRoom(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()
	session := tracker.OnConnect()

	tracker.OnJoin(session, domain.RoomID("room-a"))
	tracker.OnJoin(session, domain.RoomID("room-b"))
	tracker.OnLeave(session, domain.RoomID("room-a"))

	req.ElementsMatch([]domain.RoomID{"room-b"}, tracker.OnDisconnect(session))
}

func TestTracker_JoinWithoutConnectIsTracked(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.OnJoin("unseen-session", domain.RoomID("room-a"))

	req.ElementsMatch([]domain.RoomID{"room-a"}, tracker.OnDisconnect("unseen-session"))
}
