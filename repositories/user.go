//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"event-chat/domain"
	"event-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(name, phone string, organizer bool) (domain.User, error)
	FindUserByID(id string) (domain.User, error)
	FindUserByPhone(phone string) (domain.User, error)
	ListUsers() ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// diskUser is the stored representation of a user.
type diskUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Organizer bool      `json:"organizer"`
	CreatedAt time.Time `json:"created_at"`
}

func userKey(id string) []byte { return []byte("user:id:" + id) }
func phoneKey(phone string) []byte { return []byte("user:phone:" + phone) }

// CreateUser persists a new user. The phone number uniquely identifies a
// user, enforced with a secondary index key written in the same
// transaction as the record itself.
func (u UserRepository) CreateUser(name, phone string, organizer bool) (domain.User, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return domain.User{}, fmt.Errorf("name and phone are required: %w", errors.ErrMalformedSubmission)
	}

	user := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Organizer: organizer,
		CreatedAt: time.Now().UTC(),
	}

	data, err := encode(fromUser(user))
	if err != nil {
		return domain.User{}, err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(phoneKey(phone)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(phoneKey(phone), []byte(user.ID))
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrUserAlreadyExists) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("create user: %w: %w", errors.ErrStorage, err)
	}
	return user, nil
}

func (u UserRepository) FindUserByID(id string) (domain.User, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if err != nil {
		return domain.User{}, mapLookupErr(err, errors.ErrUserNotFound)
	}
	return toUser(disk), nil
}

// FindUserByPhone resolves the phone index to an id, then loads the record.
func (u UserRepository) FindUserByPhone(phone string) (domain.User, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(phoneKey(strings.TrimSpace(phone)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, mapLookupErr(err, errors.ErrUserNotFound)
	}
	return u.FindUserByID(id)
}

// ListUsers scans the id keyspace. The phone index keys live under a
// distinct prefix and are not visited.
func (u UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:id:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var disk diskUser
				if err := decode(val, &disk); err != nil {
					return err
				}
				users = append(users, toUser(disk))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w: %w", errors.ErrStorage, err)
	}
	return users, nil
}

func mapLookupErr(err, notFound error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %w", errors.ErrStorage, err)
}

func fromUser(user domain.User) diskUser {
	return diskUser{
		ID:        user.ID,
		Name:      user.Name,
		Phone:     user.Phone,
		Organizer: user.Organizer,
		CreatedAt: user.CreatedAt,
	}
}

func toUser(disk diskUser) domain.User {
	return domain.User{
		ID:        disk.ID,
		Name:      disk.Name,
		Phone:     disk.Phone,
		Organizer: disk.Organizer,
		CreatedAt: disk.CreatedAt,
	}
}
