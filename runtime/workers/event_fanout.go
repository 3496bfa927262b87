package workers

import (
	"context"
	"log/slog"
	"time"

	"event-chat/contract"
	"event-chat/domain/event"
	"event-chat/observability"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts domain events to the sinks of the target room's
// current members, plus the permanent sinks (projection, observability).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries: a member that has already disconnected simply
// does not receive the event. EventFanout is not a message broker.
type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	in          <-chan event.DomainEvent
	permanent   []contract.EventSink
	sinkTimeout time.Duration
	monitor     *observability.Monitor
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	in <-chan event.DomainEvent, sinkTimeout time.Duration,
	monitor *observability.Monitor) *EventFanout {
	return &EventFanout{
		log:         log,
		registry:    registry,
		in:          in,
		sinkTimeout: sinkTimeout,
		monitor:     monitor,
	}
}

// Add registers permanent sinks consuming every event regardless of room.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.permanent = append(w.permanent, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		case evt, ok := <-w.in:
			if !ok {
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

// fanout delivers one event to every sink. A slow sink only burns its own
// timeout budget; it never wedges the room pipeline for good.
func (w *EventFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.SinksForRoom(evt.RoomID())
	sinks = append(sinks, w.permanent...)

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.monitor.EventDropped()
			w.log.Debug("Sink dropped event", "room", evt.RoomID().String(), "error", err)
		}
		cancel()
	}
}
