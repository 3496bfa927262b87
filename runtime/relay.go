// Package runtime owns the live side of the platform: room membership,
// session lifecycle, and the relay moving submissions from connections to
// storage and back out to rooms. It contains no transport or storage logic
// of its own.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"event-chat/contract"
	"event-chat/domain"
	"event-chat/domain/event"
	"event-chat/errors"
	"event-chat/moderation"
	"event-chat/observability"
	"event-chat/repositories"
	"event-chat/runtime/workers"
)

// Relay accepts room joins and message submissions from the gateway and
// drives each submission through validation, authorization, persistence,
// and broadcast.
//
// Each room gets a lazily created FIFO inbox drained by a dedicated
// supervised worker, so two submissions to the same room are persisted and
// broadcast in arrival order even when their storage latencies differ. The
// worker is evicted again when the last member leaves, so queues only ever
// exist for rooms somebody is in or actively posting to.
type Relay struct {
	log        *slog.Logger
	registry   *Registry
	tracker    *Tracker
	users      repositories.IUserRepository
	events     repositories.IEventRepository
	messages   repositories.IMessageRepository
	guard      moderation.Guard
	supervisor contract.ISupervisor
	monitor    *observability.Monitor

	broadcasts  chan event.DomainEvent
	bufferSize  int
	sinkTimeout time.Duration

	mu     sync.Mutex
	ctx    context.Context
	queues map[domain.RoomID]roomQueue
}

// roomQueue is one room's live submission pipeline. stop cancels the
// supervised worker draining the inbox; the worker handles whatever is
// already buffered before it exits.
type roomQueue struct {
	inbox chan workers.Delivery
	stop  context.CancelFunc
}

func NewRelay(log *slog.Logger, registry *Registry, tracker *Tracker,
	users repositories.IUserRepository, events repositories.IEventRepository,
	messages repositories.IMessageRepository, guard moderation.Guard,
	supervisor contract.ISupervisor, monitor *observability.Monitor,
	bufferSize int, sinkTimeout time.Duration) *Relay {
	return &Relay{
		log:         log,
		registry:    registry,
		tracker:     tracker,
		users:       users,
		events:      events,
		messages:    messages,
		guard:       guard,
		supervisor:  supervisor,
		monitor:     monitor,
		broadcasts:  make(chan event.DomainEvent, bufferSize),
		bufferSize:  bufferSize,
		sinkTimeout: sinkTimeout,
		queues:      make(map[domain.RoomID]roomQueue),
	}
}

// Start wires the fanout under supervision and captures the supervision
// context for room workers created later. Permanent sinks receive every
// broadcast event in addition to the room members.
func (r *Relay) Start(ctx context.Context, permanent ...contract.EventSink) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	fanout := workers.NewEventFanout(r.log, r.registry, r.broadcasts, r.sinkTimeout, r.monitor)
	fanout.Add(permanent...)
	r.supervisor.Start(ctx, fanout)
}

// Connect opens a new session and returns its opaque identifier.
func (r *Relay) Connect() string {
	r.monitor.SessionOpened()
	return r.tracker.OnConnect()
}

// JoinRoom registers the session as a member of the event's room and
// returns the new member count. Rejoining is a no-op on the membership set
// and does not trigger a second count broadcast, but the lifecycle tracker
// is updated either way. No authorization applies to joining; presence is
// open, only sending is gated.
func (r *Relay) JoinRoom(ctx context.Context, sessionID string, roomID domain.RoomID, sink contract.EventSink) (int, error) {
	if !roomID.Valid() {
		return 0, fmt.Errorf("room %q: %w", roomID, errors.ErrInvalidIdentifier)
	}

	count, added := r.registry.Join(sessionID, roomID, sink)
	r.tracker.OnJoin(sessionID, roomID)
	if added {
		r.monitor.JoinRecorded()
		r.emit(ctx, event.UserCountChanged{Room: roomID, Count: count})
	}
	return count, nil
}

// LeaveRoom removes the session from the room. Leaving a room the session
// never joined is a no-op with no broadcast.
func (r *Relay) LeaveRoom(ctx context.Context, sessionID string, roomID domain.RoomID) int {
	count, removed := r.registry.Leave(sessionID, roomID)
	r.tracker.OnLeave(sessionID, roomID)
	if removed {
		if count == 0 {
			r.evictRoom(roomID)
		}
		r.emit(ctx, event.UserCountChanged{Room: roomID, Count: count})
	}
	return count
}

// Disconnect ends the session and leaves every room it had joined. Cleanup
// is exhaustive and single-pass: one room's count broadcast failing to
// enqueue never blocks the removal of the rest.
func (r *Relay) Disconnect(ctx context.Context, sessionID string) {
	r.monitor.SessionClosed()
	for _, roomID := range r.tracker.OnDisconnect(sessionID) {
		count, removed := r.registry.Leave(sessionID, roomID)
		if removed {
			if count == 0 {
				r.evictRoom(roomID)
			}
			r.emit(ctx, event.UserCountChanged{Room: roomID, Count: count})
		}
	}
}

// Submit queues a message submission on its room's FIFO inbox. Failures
// that the relay can decide without the worker (missing fields, malformed
// or unknown event id) are rejected here; everything else is decided by
// the room worker. Either way the submitting connection receives exactly
// one terminating outcome. The enqueue is non-blocking under the relay
// lock so it can never race the eviction of an emptied room; a full inbox
// rejects the submission instead of stalling the relay.
func (r *Relay) Submit(ctx context.Context, cmd domain.SendMessage, reply contract.EventSink) {
	if cmd.UserID == "" || cmd.EventID == "" || cmd.Body == "" {
		r.reject(ctx, cmd, reply, fmt.Errorf("missing fields: %w", errors.ErrMalformedSubmission))
		return
	}
	roomID := cmd.RoomID()
	if !roomID.Valid() {
		r.reject(ctx, cmd, reply, fmt.Errorf("event id %q: %w", cmd.EventID, errors.ErrInvalidIdentifier))
		return
	}

	r.mu.Lock()
	queue, err := r.queueFor(roomID)
	if err != nil {
		r.mu.Unlock()
		r.reject(ctx, cmd, reply, err)
		return
	}
	select {
	case queue.inbox <- workers.Delivery{Cmd: cmd, Reply: reply}:
		r.mu.Unlock()
	default:
		r.mu.Unlock()
		r.reject(ctx, cmd, reply, fmt.Errorf("room inbox full: %w", errors.ErrStorage))
	}
}

// History returns persisted messages of an event in ascending creation
// order with an opaque resume cursor.
func (r *Relay) History(eventID string, cursor *string) ([]domain.Message, *string, error) {
	if !domain.RoomID(eventID).Valid() {
		return nil, nil, fmt.Errorf("event id %q: %w", eventID, errors.ErrInvalidIdentifier)
	}
	return r.messages.ListMessages(eventID, cursor)
}

func (r *Relay) emit(_ context.Context, evt event.DomainEvent) {
	select {
	case r.broadcasts <- evt:
	default:
		r.monitor.EventDropped()
		r.log.Warn("Broadcast channel full, dropping event", "room", evt.RoomID().String())
	}
}

func (r *Relay) reject(ctx context.Context, cmd domain.SendMessage, reply contract.EventSink, cause error) {
	r.monitor.MessageRejected()
	r.log.Debug("Submission rejected before queueing", "session", cmd.SessionID, "error", cause)
	if reply == nil {
		return
	}
	rejection := event.SubmissionRejected{Room: cmd.RoomID(), Reason: errors.Reason(cause)}
	if err := reply.Consume(ctx, rejection); err != nil {
		r.log.Debug("Sender unreachable for rejection", "session", cmd.SessionID, "error", err)
	}
}

// queueFor returns the room's submission queue, creating the queue and its
// supervised worker on first use. Creation requires the event to exist in
// the directory, so well-formed ids that resolve to nothing never
// accumulate workers. Callers hold r.mu.
func (r *Relay) queueFor(roomID domain.RoomID) (roomQueue, error) {
	if queue, ok := r.queues[roomID]; ok {
		return queue, nil
	}
	if r.ctx == nil {
		return roomQueue{}, fmt.Errorf("relay not started: %w", errors.ErrStorage)
	}
	if _, err := r.events.FindEventByID(roomID.String()); err != nil {
		return roomQueue{}, err
	}

	workerCtx, stop := context.WithCancel(r.ctx)
	inbox := make(chan workers.Delivery, r.bufferSize)
	worker := workers.NewRoomWorker(roomID, inbox, r.users, r.events, r.messages,
		r.guard, r.broadcasts, r.monitor, r.log)
	r.supervisor.Start(workerCtx, worker)
	queue := roomQueue{inbox: inbox, stop: stop}
	r.queues[roomID] = queue
	return queue, nil
}

// evictRoom stops the room's worker and drops its queue once the last
// member has left. The worker drains submissions already buffered before
// exiting; the next submission to the room recreates everything lazily.
func (r *Relay) evictRoom(roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if queue, ok := r.queues[roomID]; ok {
		queue.stop()
		delete(r.queues, roomID)
	}
}
