//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"event-chat/domain"
	"event-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself. The supervisor owns restarts, so a worker
// can stay small and focused on one loop.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision so workers don't have to name themselves.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one delivery target: a live connection, a projection, or an
// observability consumer. Delivery is best-effort; a sink that cannot keep
// up loses events rather than blocking the room.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks which sessions are members of which rooms and resolves a
// room into the sinks of its currently connected members.
type IRegistry interface {
	Join(sessionID string, roomID domain.RoomID, sink EventSink) (count int, added bool)
	Leave(sessionID string, roomID domain.RoomID) (count int, removed bool)
	MemberCount(roomID domain.RoomID) int
	SinksForRoom(roomID domain.RoomID) []EventSink
}
