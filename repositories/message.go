//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"event-chat/domain"
	"event-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	ListMessages(eventID string, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// messageKey is formatted as "msg:{event_id}:{timestamp_padded}:{message_id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order of keys is creation order).
//  2. Prevent data loss by using the message id as a collision disconnector
//     if two messages land on the same nanosecond.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		message.EventID,
		message.CreatedAt.UnixNano(),
		message.ID,
	))
}

// StoreMessage persists a message. Messages are append-only; nothing in the
// system updates or deletes them.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	data, err := encode(fromMessage(message))
	if err != nil {
		return err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), data)
	})
	if err != nil {
		return fmt.Errorf("store message: %w: %w", errors.ErrStorage, err)
	}
	return nil
}

// ListMessages retrieves messages for an event in ascending creation order
// using a prefix scan; the padded timestamp in the key makes the iteration
// order the chronological one. A non-nil cursor resumes after the last key
// of the previous page. The returned cursor is nil once the final page has
// been served.
func (m MessageRepository) ListMessages(eventID string, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	var more bool

	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", eventID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}
		it.Seek(seekKey)

		// The cursor points at the last item of the previous page; skip it
		// only when the seek actually landed on it. A cursor matching no
		// stored key lands on the next key already.
		if cursor != nil && it.ValidForPrefix(prefix) &&
			string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				more = true
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(val []byte) error {
				var disk diskMessage
				if err := decode(val, &disk); err != nil {
					return err
				}
				messages = append(messages, toMessage(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w: %w", errors.ErrStorage, err)
	}
	if !more {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:         message.ID,
		EventID:    message.EventID,
		AuthorID:   message.AuthorID,
		AuthorName: message.AuthorName,
		Body:       message.Body,
		CreatedAt:  message.CreatedAt,
	}
}

func toMessage(disk diskMessage) domain.Message {
	return domain.Message{
		ID:         disk.ID,
		EventID:    disk.EventID,
		AuthorID:   disk.AuthorID,
		AuthorName: disk.AuthorName,
		Body:       disk.Body,
		CreatedAt:  disk.CreatedAt,
	}
}
