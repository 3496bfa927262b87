//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"

	"event-chat/contract"
	"event-chat/domain"
	"event-chat/moderation"
	"event-chat/repositories"
	"event-chat/runtime"
)

// IChatService is the surface the gateway programs against. One live
// connection maps to one session; everything scoped to a session takes its
// id explicitly.
type IChatService interface {
	Connect() string
	JoinEvent(ctx context.Context, sessionID, eventID string, sink contract.EventSink) (int, error)
	LeaveEvent(ctx context.Context, sessionID, eventID string) int
	Disconnect(ctx context.Context, sessionID string)
	SendMessage(ctx context.Context, cmd domain.SendMessage, reply contract.EventSink)
	History(eventID string, cursor *string) ([]domain.Message, *string, error)
	ListEvents() ([]domain.Event, error)
	GetEvent(id string) (domain.Event, error)
	CheckPhone(eventID, phone string) (bool, error)
}

type ChatService struct {
	relay  *runtime.Relay
	events repositories.IEventRepository
	guard  moderation.Guard
}

func NewChatService(relay *runtime.Relay, events repositories.IEventRepository,
	guard moderation.Guard) *ChatService {
	return &ChatService{relay: relay, events: events, guard: guard}
}

func (s *ChatService) Connect() string {
	return s.relay.Connect()
}

func (s *ChatService) JoinEvent(ctx context.Context, sessionID, eventID string, sink contract.EventSink) (int, error) {
	return s.relay.JoinRoom(ctx, sessionID, domain.RoomID(eventID), sink)
}

func (s *ChatService) LeaveEvent(ctx context.Context, sessionID, eventID string) int {
	return s.relay.LeaveRoom(ctx, sessionID, domain.RoomID(eventID))
}

func (s *ChatService) Disconnect(ctx context.Context, sessionID string) {
	s.relay.Disconnect(ctx, sessionID)
}

func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessage, reply contract.EventSink) {
	s.relay.Submit(ctx, cmd, reply)
}

func (s *ChatService) History(eventID string, cursor *string) ([]domain.Message, *string, error) {
	return s.relay.History(eventID, cursor)
}

func (s *ChatService) ListEvents() ([]domain.Event, error) {
	return s.events.ListEvents()
}

func (s *ChatService) GetEvent(id string) (domain.Event, error) {
	return s.events.FindEventByID(id)
}

// CheckPhone probes the allow-list the same way the relay will when that
// phone actually sends.
func (s *ChatService) CheckPhone(eventID, phone string) (bool, error) {
	event, err := s.events.FindEventByID(eventID)
	if err != nil {
		return false, err
	}
	return s.guard.CanSend(event, phone), nil
}
