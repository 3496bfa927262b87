package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"event-chat/domain"
	"event-chat/domain/event"
	apperrors "event-chat/errors"
	"event-chat/services"
	"event-chat/sink"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = 54 * time.Second
	maxFrameBytes = 16 * 1024
)

// client binds one websocket connection to one session. The write pump is
// the only goroutine touching the connection for writes; everything the
// client must hear, rejections included, travels through its sink.
type client struct {
	log       *slog.Logger
	conn      *websocket.Conn
	chat      services.IChatService
	sessionID string
	sink      *sink.Session
}

func (c *client) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)

	c.readPump(ctx)
}

func (c *client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Read failed", "session", c.sessionID, "error", err)
			}
			return
		}
		c.handleFrame(ctx, frame)
	}
}

func (c *client) handleFrame(ctx context.Context, frame inboundFrame) {
	switch frame.Type {
	case "joinEvent":
		c.handleJoin(ctx, frame.EventID)
	case "leaveEvent":
		c.handleLeave(ctx, frame.EventID)
	case "sendMessage":
		c.handleSend(ctx, frame.Data)
	default:
		c.reject(ctx, "", "Unknown message type")
	}
}

func (c *client) handleJoin(ctx context.Context, eventID string) {
	_, err := c.chat.JoinEvent(ctx, c.sessionID, eventID, c.sink)
	if err != nil {
		c.reject(ctx, eventID, apperrors.Reason(err))
		return
	}
	c.log.Info("Session joined event", "session", c.sessionID, "event", eventID)
}

// handleLeave drops one room without ending the session. Leaving a room
// the session never joined is a silent no-op, same as the relay treats it.
func (c *client) handleLeave(ctx context.Context, eventID string) {
	c.chat.LeaveEvent(ctx, c.sessionID, eventID)
	c.log.Info("Session left event", "session", c.sessionID, "event", eventID)
}

func (c *client) handleSend(ctx context.Context, payload sendMessagePayload) {
	cmd := domain.SendMessage{
		SessionID: c.sessionID,
		UserID:    payload.UserID,
		EventID:   payload.EventID,
		Body:      payload.Message,
		At:        time.Now().UTC(),
	}
	c.chat.SendMessage(ctx, cmd, c.sink)
}

// reject answers the sender through its own sink so the write pump stays
// the single connection writer.
func (c *client) reject(ctx context.Context, eventID, reason string) {
	rejected := event.SubmissionRejected{Room: domain.RoomID(eventID), Reason: reason}
	if err := c.sink.Consume(ctx, rejected); err != nil {
		c.log.Warn("Rejection dropped", "session", c.sessionID, "error", err)
	}
}

func (c *client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case evt := <-c.sink.Events():
			frame, ok := toOutboundFrame(evt)
			if !ok {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(frame); err != nil {
				c.log.Debug("Write failed", "session", c.sessionID, "error", err)
				return
			}
		}
	}
}

func toOutboundFrame(evt event.DomainEvent) (outboundFrame, bool) {
	switch e := evt.(type) {
	case event.UserCountChanged:
		count := e.Count
		return outboundFrame{Type: "userCount", EventID: e.Room.String(), Count: &count}, true
	case event.MessageBroadcast:
		return outboundFrame{Type: "receiveMessage", Data: toWireMessage(e.Message)}, true
	case event.SubmissionRejected:
		return outboundFrame{Type: "messageError", Data: wireError{Error: e.Reason}}, true
	default:
		return outboundFrame{}, false
	}
}
