//go:generate go run go.uber.org/mock/mockgen -source=event.go -destination=../mocks/mock_event_repository.go -package=mocks
package repositories

import (
	"fmt"
	"strings"
	"time"

	"event-chat/domain"
	"event-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IEventRepository interface {
	CreateEvent(event domain.Event) (domain.Event, error)
	FindEventByID(id string) (domain.Event, error)
	ListEvents() ([]domain.Event, error)
	UpdateAllowedPhones(id string, phones []string) (domain.Event, error)
}

type EventRepository struct {
	db *badger.DB
}

func NewEventRepository(db *badger.DB) EventRepository {
	return EventRepository{db: db}
}

type diskEvent struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Image         string    `json:"image,omitempty"`
	Live          bool      `json:"live"`
	AllowedPhones []string  `json:"allowed_phones,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

const eventPrefix = "event:"

func eventKey(id string) []byte { return []byte(eventPrefix + id) }

// CreateEvent assigns an id and persists the event. The allow-list is
// normalized (trimmed, deduplicated, empties dropped) before storage.
func (e EventRepository) CreateEvent(event domain.Event) (domain.Event, error) {
	if strings.TrimSpace(event.Name) == "" {
		return domain.Event{}, fmt.Errorf("event name is required: %w", errors.ErrMalformedSubmission)
	}

	event.ID = uuid.NewString()
	event.Name = strings.TrimSpace(event.Name)
	event.AllowedPhones = domain.NormalizePhones(event.AllowedPhones)
	event.CreatedAt = time.Now().UTC()

	data, err := encode(fromEvent(event))
	if err != nil {
		return domain.Event{}, err
	}

	err = e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(event.ID), data)
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("create event: %w: %w", errors.ErrStorage, err)
	}
	return event, nil
}

func (e EventRepository) FindEventByID(id string) (domain.Event, error) {
	var disk diskEvent
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(eventKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if err != nil {
		return domain.Event{}, mapLookupErr(err, errors.ErrEventNotFound)
	}
	return toEvent(disk), nil
}

// ListEvents returns every stored event via a prefix scan.
func (e EventRepository) ListEvents() ([]domain.Event, error) {
	var events []domain.Event
	err := e.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(eventPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var disk diskEvent
				if err := decode(val, &disk); err != nil {
					return err
				}
				events = append(events, toEvent(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w: %w", errors.ErrStorage, err)
	}
	return events, nil
}

// UpdateAllowedPhones replaces the allow-list of an event. The guard reads
// the event fresh on every submission, so the new policy applies to the next
// message without touching anything already sent.
func (e EventRepository) UpdateAllowedPhones(id string, phones []string) (domain.Event, error) {
	event, err := e.FindEventByID(id)
	if err != nil {
		return domain.Event{}, err
	}
	event.AllowedPhones = domain.NormalizePhones(phones)

	data, err := encode(fromEvent(event))
	if err != nil {
		return domain.Event{}, err
	}
	err = e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(eventKey(event.ID), data)
	})
	if err != nil {
		return domain.Event{}, fmt.Errorf("update allow-list: %w: %w", errors.ErrStorage, err)
	}
	return event, nil
}

func fromEvent(event domain.Event) diskEvent {
	return diskEvent{
		ID:            event.ID,
		Name:          event.Name,
		Description:   event.Description,
		Image:         event.Image,
		Live:          event.Live,
		AllowedPhones: event.AllowedPhones,
		CreatedAt:     event.CreatedAt,
	}
}

func toEvent(disk diskEvent) domain.Event {
	return domain.Event{
		ID:            disk.ID,
		Name:          disk.Name,
		Description:   disk.Description,
		Image:         disk.Image,
		Live:          disk.Live,
		AllowedPhones: disk.AllowedPhones,
		CreatedAt:     disk.CreatedAt,
	}
}
