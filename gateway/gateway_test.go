package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"event-chat/domain"
	"event-chat/moderation"
	"event-chat/observability"
	"event-chat/projection"
	"event-chat/repositories"
	"event-chat/runtime"
	"event-chat/runtime/workers"
	"event-chat/services"
)

type testPlatform struct {
	server *httptest.Server
	users  repositories.UserRepository
	events repositories.EventRepository
}

func newTestPlatform(t *testing.T) testPlatform {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	events := repositories.NewEventRepository(db)
	messages := repositories.NewMessageRepository(db, log, nil)

	monitor := observability.NewMonitor(log)
	guard := moderation.NewGuard(0)
	registry := runtime.NewRegistry()
	tracker := runtime.NewTracker()
	sup := workers.NewSupervisor(log, 10*time.Millisecond)
	relay := runtime.NewRelay(log, registry, tracker, users, events, messages,
		guard, sup, monitor, 64, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	timeline := projection.NewTimeline(10)
	relay.Start(ctx, timeline)

	chat := services.NewChatService(relay, events, guard)
	gw := NewGateway(log, chat, registry, monitor, timeline, 32)

	server := httptest.NewServer(gw.Router())
	t.Cleanup(server.Close)

	return testPlatform{server: server, users: users, events: events}
}

func (p testPlatform) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(p.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type testFrame struct {
	Type    string          `json:"type"`
	EventID string          `json:"eventId"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame testFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendJoin(t *testing.T, conn *websocket.Conn, eventID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "joinEvent", "eventId": eventID,
	}))
}

func sendMessage(t *testing.T, conn *websocket.Conn, userID, eventID, body string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "sendMessage",
		"data": map[string]string{
			"userId": userID, "eventId": eventID, "message": body,
		},
	}))
}

func TestGateway_LiveRoomScenario(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	// Given an event whose allow-list admits only the first attendee
	allowed, err := platform.users.CreateUser("Noah", "5551234567", false)
	req.NoError(err)
	blocked, err := platform.users.CreateUser("Victor", "5559876543", false)
	req.NoError(err)
	evt, err := platform.events.CreateEvent(domain.Event{
		Name:          "Launch Night",
		Live:          true,
		AllowedPhones: []string{"5551234567"},
	})
	req.NoError(err)

	// When the first attendee connects and joins
	first := platform.dial(t)
	sendJoin(t, first, evt.ID)

	frame := readFrame(t, first)
	req.Equal("userCount", frame.Type)
	req.Equal(evt.ID, frame.EventID)
	req.Equal(1, *frame.Count)

	// And a second attendee joins, both hear the new count
	second := platform.dial(t)
	sendJoin(t, second, evt.ID)

	for _, conn := range []*websocket.Conn{first, second} {
		frame = readFrame(t, conn)
		req.Equal("userCount", frame.Type)
		req.Equal(2, *frame.Count)
	}

	// When the allowed attendee sends a message, everyone receives it
	sendMessage(t, first, allowed.ID, evt.ID, "hello")

	for _, conn := range []*websocket.Conn{first, second} {
		frame = readFrame(t, conn)
		req.Equal("receiveMessage", frame.Type)

		var payload struct {
			ID     string `json:"id"`
			UserID struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"userId"`
			EventID   string    `json:"eventId"`
			Message   string    `json:"message"`
			CreatedAt time.Time `json:"createdAt"`
		}
		req.NoError(json.Unmarshal(frame.Data, &payload))
		req.Equal("hello", payload.Message)
		req.Equal(allowed.ID, payload.UserID.ID)
		req.Equal("Noah", payload.UserID.Name)
		req.Equal(evt.ID, payload.EventID)
		req.False(payload.CreatedAt.IsZero())
	}

	// When the blocked attendee sends, only they hear the rejection
	sendMessage(t, second, blocked.ID, evt.ID, "let me in")

	frame = readFrame(t, second)
	req.Equal("messageError", frame.Type)
	var failure struct {
		Error string `json:"error"`
	}
	req.NoError(json.Unmarshal(frame.Data, &failure))
	req.Equal("Your phone number is not authorized to send messages in this event", failure.Error)

	// And history holds only the authorized message
	history := getHistory(t, platform, evt.ID, "")
	req.Len(history.Messages, 1)
	req.Equal("hello", history.Messages[0].Message)

	// When the second attendee disconnects, the count drops for the first.
	// The rejection above never reached the first attendee, so this is the
	// very next frame on its connection.
	req.NoError(second.Close())
	frame = readFrame(t, first)
	req.Equal("userCount", frame.Type)
	req.Equal(1, *frame.Count)
}

func TestGateway_UnknownFrameType(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	conn := platform.dial(t)
	req.NoError(conn.WriteJSON(map[string]any{"type": "launchMissiles"}))

	frame := readFrame(t, conn)
	req.Equal("messageError", frame.Type)
	var failure struct {
		Error string `json:"error"`
	}
	req.NoError(json.Unmarshal(frame.Data, &failure))
	req.Equal("Unknown message type", failure.Error)
}

func TestGateway_JoinWithMalformedEventID(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	conn := platform.dial(t)
	sendJoin(t, conn, "not-a-uuid")

	frame := readFrame(t, conn)
	req.Equal("messageError", frame.Type)
	var failure struct {
		Error string `json:"error"`
	}
	req.NoError(json.Unmarshal(frame.Data, &failure))
	req.Equal("Invalid event ID format", failure.Error)
}

type historyPayload struct {
	Messages []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"messages"`
	NextCursor *string `json:"nextCursor"`
}

func getHistory(t *testing.T, platform testPlatform, eventID, cursor string) historyPayload {
	t.Helper()
	url := fmt.Sprintf("%s/api/events/%s/messages", platform.server.URL, eventID)
	if cursor != "" {
		url += "?cursor=" + cursor
	}
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload historyPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestGateway_HTTPEventSurface(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	created, err := platform.events.CreateEvent(domain.Event{
		Name:          "Launch Night",
		Description:   "demo",
		Live:          true,
		AllowedPhones: []string{"5551234567"},
	})
	req.NoError(err)

	// List
	resp, err := http.Get(platform.server.URL + "/api/events")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var events []wireEvent
	req.NoError(json.NewDecoder(resp.Body).Decode(&events))
	req.Len(events, 1)
	req.Equal(created.ID, events[0].ID)

	// Fetch one
	resp, err = http.Get(platform.server.URL + "/api/events/" + created.ID)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var single wireEvent
	req.NoError(json.NewDecoder(resp.Body).Decode(&single))
	req.Equal("Launch Night", single.Name)

	// Unknown event id is a 404
	resp, err = http.Get(platform.server.URL + "/api/events/3c8f5abe-12aa-41a8-9f2f-5c62cbb98d24")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestGateway_CheckPhone(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	created, err := platform.events.CreateEvent(domain.Event{
		Name:          "Gated",
		AllowedPhones: []string{"5551234567"},
	})
	req.NoError(err)

	check := func(phone string) bool {
		resp, err := http.Get(fmt.Sprintf("%s/api/events/%s/check-phone/%s",
			platform.server.URL, created.ID, phone))
		req.NoError(err)
		defer resp.Body.Close()
		req.Equal(http.StatusOK, resp.StatusCode)

		var payload map[string]bool
		req.NoError(json.NewDecoder(resp.Body).Decode(&payload))
		return payload["allowed"]
	}

	req.True(check("5551234567"))
	req.False(check("5559876543"))
}

func TestGateway_StatsAndHealth(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	resp, err := http.Get(platform.server.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(platform.server.URL + "/api/stats")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var stats statsResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Empty(stats.Rooms)
}

func TestGateway_LeaveEvent(t *testing.T) {
	req := require.New(t)
	platform := newTestPlatform(t)

	evt, err := platform.events.CreateEvent(domain.Event{Name: "Open Mic", Live: true})
	req.NoError(err)

	first := platform.dial(t)
	sendJoin(t, first, evt.ID)
	frame := readFrame(t, first)
	req.Equal("userCount", frame.Type)
	req.Equal(1, *frame.Count)

	second := platform.dial(t)
	sendJoin(t, second, evt.ID)
	req.Equal(2, *readFrame(t, first).Count)
	req.Equal(2, *readFrame(t, second).Count)

	// When the second attendee leaves without closing its socket
	req.NoError(second.WriteJSON(map[string]any{
		"type": "leaveEvent", "eventId": evt.ID,
	}))

	// Then the remaining member hears the new count
	frame = readFrame(t, first)
	req.Equal("userCount", frame.Type)
	req.Equal(evt.ID, frame.EventID)
	req.Equal(1, *frame.Count)
}
