package workers

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"event-chat/contract"
	"event-chat/domain"
	"event-chat/domain/event"
	"event-chat/errors"
	"event-chat/moderation"
	"event-chat/observability"
	"event-chat/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var _ contract.Worker = (*RoomWorker)(nil)

// Delivery couples a submission with the sink of the connection that sent
// it. Rejections go back through Reply only; successful messages reach the
// sender like any other member, through the room fanout.
type Delivery struct {
	Cmd   domain.SendMessage
	Reply contract.EventSink
}

// RoomWorker drains one room's submission queue. One worker per room, one
// submission at a time: a message is validated, authorized, persisted, and
// only then handed to the fanout, so broadcast order within a room is the
// order submissions arrived in.
type RoomWorker struct {
	room     domain.RoomID
	inbox    chan Delivery
	validate *validator.Validate
	users    repositories.IUserRepository
	events   repositories.IEventRepository
	messages repositories.IMessageRepository
	guard    moderation.Guard
	out      chan<- event.DomainEvent
	monitor  *observability.Monitor
	log      *slog.Logger
}

func NewRoomWorker(
	room domain.RoomID,
	inbox chan Delivery,
	users repositories.IUserRepository,
	eventsRepo repositories.IEventRepository,
	messages repositories.IMessageRepository,
	guard moderation.Guard,
	out chan<- event.DomainEvent,
	monitor *observability.Monitor,
	log *slog.Logger) *RoomWorker {
	return &RoomWorker{
		room:     room,
		inbox:    inbox,
		validate: validator.New(),
		users:    users,
		events:   eventsRepo,
		messages: messages,
		guard:    guard,
		out:      out,
		monitor:  monitor,
		log:      log.With("room", room.String()),
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			w.drain(ctx)
			return nil
		case delivery, ok := <-w.inbox:
			if !ok {
				w.log.Debug("Inbox closed")
				return nil
			}
			w.handle(ctx, delivery)
		}
	}
}

// drain handles whatever the inbox still buffers when the worker is told
// to stop, so a submission enqueued just before room eviction or shutdown
// is still persisted rather than silently lost.
func (w *RoomWorker) drain(ctx context.Context) {
	for {
		select {
		case delivery := <-w.inbox:
			w.handle(ctx, delivery)
		default:
			return
		}
	}
}

// handle drives one submission to its terminating outcome: a broadcast to
// the room, or a tagged rejection to the sender only. A submission is never
// silently dropped.
func (w *RoomWorker) handle(ctx context.Context, delivery Delivery) {
	msg, err := w.process(delivery.Cmd)
	if err != nil {
		w.reject(ctx, delivery, err)
		return
	}

	w.monitor.MessagePosted()
	select {
	case w.out <- event.MessageBroadcast{Message: msg}:
	case <-ctx.Done():
	}
}

func (w *RoomWorker) process(cmd domain.SendMessage) (domain.Message, error) {
	// Received and Validated: field presence and identifier shapes, then
	// resolution through the directory.
	if err := w.validate.Struct(cmd); err != nil {
		return domain.Message{}, classifyShape(cmd, err)
	}

	evt, err := w.events.FindEventByID(cmd.EventID)
	if err != nil {
		return domain.Message{}, err
	}
	user, err := w.users.FindUserByID(cmd.UserID)
	if err != nil {
		return domain.Message{}, err
	}

	// Authorized: allow-list policy, evaluated fresh against the event just
	// loaded.
	if !w.guard.CanSend(evt, user.Phone) {
		return domain.Message{}, fmt.Errorf("sender %s: %w", user.ID, errors.ErrForbidden)
	}

	body, err := w.guard.NormalizeBody(cmd.Body)
	if err != nil {
		return domain.Message{}, err
	}

	// Persisted: the author name is denormalized at write time.
	at := cmd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	msg := domain.Message{
		ID:         uuid.NewString(),
		EventID:    evt.ID,
		AuthorID:   user.ID,
		AuthorName: user.Name,
		Body:       body,
		CreatedAt:  at,
	}
	if err := w.messages.StoreMessage(msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// classifyShape maps validation failures onto the submission taxonomy.
// Missing fields dominate; an event id that is present but not
// identifier-shaped is an invalid identifier, while an unrecognized author
// id shape stays a malformed submission, not a lookup miss.
func classifyShape(cmd domain.SendMessage, err error) error {
	var fields validator.ValidationErrors
	if !stderrors.As(err, &fields) {
		return fmt.Errorf("submission shape: %w", errors.ErrMalformedSubmission)
	}
	for _, field := range fields {
		if field.Tag() == "required" {
			return fmt.Errorf("missing fields: %w", errors.ErrMalformedSubmission)
		}
	}
	for _, field := range fields {
		if field.StructField() == "EventID" {
			return fmt.Errorf("event id %q: %w", cmd.EventID, errors.ErrInvalidIdentifier)
		}
	}
	return fmt.Errorf("author id %q: %w", cmd.UserID, errors.ErrMalformedSubmission)
}

func (w *RoomWorker) reject(ctx context.Context, delivery Delivery, cause error) {
	w.monitor.MessageRejected()
	if stderrors.Is(cause, errors.ErrStorage) {
		w.log.Error("Submission failed on storage", "session", delivery.Cmd.SessionID, "error", cause)
	} else {
		w.log.Debug("Submission rejected", "session", delivery.Cmd.SessionID, "error", cause)
	}
	if delivery.Reply == nil {
		return
	}
	rejection := event.SubmissionRejected{Room: w.room, Reason: errors.Reason(cause)}
	if err := delivery.Reply.Consume(ctx, rejection); err != nil {
		w.log.Debug("Sender unreachable for rejection", "session", delivery.Cmd.SessionID, "error", err)
	}
}
