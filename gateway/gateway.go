// Package gateway exposes the platform over HTTP and websocket. It owns
// the wire shapes and nothing else; room semantics live in runtime and the
// chat service.
package gateway

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"event-chat/domain"
	apperrors "event-chat/errors"
	"event-chat/observability"
	"event-chat/projection"
	"event-chat/runtime"
	"event-chat/services"
	"event-chat/sink"
)

type Gateway struct {
	log        *slog.Logger
	chat       services.IChatService
	registry   *runtime.Registry
	monitor    *observability.Monitor
	timeline   *projection.Timeline
	upgrader   websocket.Upgrader
	bufferSize int
}

// NewGateway wires the transport surface. bufferSize is the per-connection
// sink capacity; a connection that cannot drain that many pending events
// starts losing them.
func NewGateway(log *slog.Logger, chat services.IChatService, registry *runtime.Registry,
	monitor *observability.Monitor, timeline *projection.Timeline, bufferSize int) *Gateway {
	return &Gateway{
		log:      log,
		chat:     chat,
		registry: registry,
		monitor:  monitor,
		timeline: timeline,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		bufferSize: bufferSize,
	}
}

func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", g.health)
	r.Get("/ws", g.handleSocket)

	r.Route("/api", func(api chi.Router) {
		api.Get("/events", g.listEvents)
		api.Get("/events/{eventID}", g.getEvent)
		api.Get("/events/{eventID}/messages", g.listMessages)
		api.Get("/events/{eventID}/check-phone/{phone}", g.checkPhone)
		api.Get("/stats", g.stats)
	})

	return r
}

func (g *Gateway) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Upgrade failed", "error", err)
		return
	}

	sessionID := g.chat.Connect()
	c := &client{
		log:       g.log,
		conn:      conn,
		chat:      g.chat,
		sessionID: sessionID,
		sink:      sink.NewSession(g.bufferSize),
	}
	g.log.Info("Session connected", "session", sessionID, "remote", r.RemoteAddr)

	c.run(r.Context())

	// Socket closure is the implicit disconnect. Room cleanup and the
	// resulting count broadcasts happen inside the relay.
	g.chat.Disconnect(r.Context(), sessionID)
	_ = conn.Close()
	g.log.Info("Session disconnected", "session", sessionID)
}

func (g *Gateway) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(g.log, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) listEvents(w http.ResponseWriter, _ *http.Request) {
	events, err := g.chat.ListEvents()
	if err != nil {
		g.log.Error("Listing events failed", "error", err)
		respondError(g.log, w, http.StatusInternalServerError, "failed to list events")
		return
	}
	respondJSON(g.log, w, http.StatusOK, lo.Map(events, func(e domain.Event, _ int) wireEvent {
		return toWireEvent(e)
	}))
}

func (g *Gateway) getEvent(w http.ResponseWriter, r *http.Request) {
	evt, err := g.chat.GetEvent(chi.URLParam(r, "eventID"))
	if err != nil {
		g.respondLookupError(w, err)
		return
	}
	respondJSON(g.log, w, http.StatusOK, toWireEvent(evt))
}

type historyResponse struct {
	Messages   []wireMessage `json:"messages"`
	NextCursor *string       `json:"nextCursor,omitempty"`
}

func (g *Gateway) listMessages(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := g.chat.History(eventID, cursor)
	if err != nil {
		g.respondLookupError(w, err)
		return
	}
	respondJSON(g.log, w, http.StatusOK, historyResponse{
		Messages:   toWireMessages(messages),
		NextCursor: next,
	})
}

func (g *Gateway) checkPhone(w http.ResponseWriter, r *http.Request) {
	allowed, err := g.chat.CheckPhone(chi.URLParam(r, "eventID"), chi.URLParam(r, "phone"))
	if err != nil {
		g.respondLookupError(w, err)
		return
	}
	respondJSON(g.log, w, http.StatusOK, map[string]bool{"allowed": allowed})
}

type roomActivity struct {
	EventID string        `json:"eventId"`
	Members int           `json:"members"`
	Recent  []wireMessage `json:"recent"`
}

type statsResponse struct {
	observability.Stats
	Rooms []roomActivity `json:"rooms"`
}

func (g *Gateway) stats(w http.ResponseWriter, _ *http.Request) {
	rooms := lo.Map(g.registry.Rooms(), func(room domain.RoomID, _ int) roomActivity {
		return roomActivity{
			EventID: room.String(),
			Members: g.registry.MemberCount(room),
			Recent:  toWireMessages(g.timeline.Recent(room)),
		}
	})
	respondJSON(g.log, w, http.StatusOK, statsResponse{
		Stats: g.monitor.Snapshot(),
		Rooms: rooms,
	})
}

func (g *Gateway) respondLookupError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, apperrors.ErrNotFound):
		respondError(g.log, w, http.StatusNotFound, "event not found")
	case stderrors.Is(err, apperrors.ErrInvalidIdentifier):
		respondError(g.log, w, http.StatusBadRequest, "invalid event id")
	default:
		g.log.Error("Lookup failed", "error", err)
		respondError(g.log, w, http.StatusInternalServerError, "internal error")
	}
}
