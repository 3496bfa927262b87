package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"event-chat/domain"
)

func storedMessage(eventID, body string, at time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.NewString(),
		EventID:    eventID,
		AuthorID:   uuid.NewString(),
		AuthorName: "Ava",
		Body:       body,
		CreatedAt:  at,
	}
}

func TestMessageRepository_AscendingOrder(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	eventID := uuid.NewString()
	at := time.Now().UTC()

	// Stored out of order on purpose; the key layout must restore it.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		req.NoError(repo.StoreMessage(
			storedMessage(eventID, fmt.Sprintf("at+%s", offset), at.Add(offset))))
	}

	messages, next, err := repo.ListMessages(eventID, nil)
	req.NoError(err)
	req.Nil(next)
	req.Len(messages, 3)
	for i := 1; i < len(messages); i++ {
		req.True(messages[i-1].CreatedAt.Before(messages[i].CreatedAt))
	}
}

func TestMessageRepository_IsolatesEvents(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	eventA := uuid.NewString()
	eventB := uuid.NewString()
	at := time.Now().UTC()

	req.NoError(repo.StoreMessage(storedMessage(eventA, "for A", at)))
	req.NoError(repo.StoreMessage(storedMessage(eventB, "for B", at)))

	messages, _, err := repo.ListMessages(eventA, nil)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for A", messages[0].Body)
}

func TestMessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	limit := 4
	repo := NewMessageRepository(newTestDB(t), slog.Default(), &limit)

	eventID := uuid.NewString()
	now := time.Now().UTC()

	for i := 1; i <= 10; i++ {
		req.NoError(repo.StoreMessage(
			storedMessage(eventID, fmt.Sprintf("message %d", i), now.Add(time.Duration(i)*time.Minute))))
	}

	// Page 1
	page1, cursor1, err := repo.ListMessages(eventID, nil)
	req.NoError(err)
	req.Len(page1, 4)
	req.NotNil(cursor1)
	req.Equal("message 1", page1[0].Body)

	// Page 2 resumes after the last item of page 1
	page2, cursor2, err := repo.ListMessages(eventID, cursor1)
	req.NoError(err)
	req.Len(page2, 4)
	req.NotNil(cursor2)
	req.Equal("message 5", page2[0].Body)

	// Final page is short and closes the cursor
	page3, cursor3, err := repo.ListMessages(eventID, cursor2)
	req.NoError(err)
	req.Len(page3, 2)
	req.Nil(cursor3)
	req.Equal("message 10", page3[1].Body)
}

func TestMessageRepository_CursorMatchingNoKey(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	eventID := uuid.NewString()
	now := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		req.NoError(repo.StoreMessage(
			storedMessage(eventID, fmt.Sprintf("message %d", i), now.Add(time.Duration(i)*time.Minute))))
	}

	// A cursor sorting below every stored key must not swallow the first
	// message the seek lands on.
	cursor := "0"
	messages, next, err := repo.ListMessages(eventID, &cursor)
	req.NoError(err)
	req.Nil(next)
	req.Len(messages, 3)
	req.Equal("message 1", messages[0].Body)
}

func TestMessageRepository_EmptyEvent(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(newTestDB(t), slog.Default(), nil)

	messages, next, err := repo.ListMessages(uuid.NewString(), nil)
	req.NoError(err)
	req.Nil(next)
	req.Empty(messages)
}
