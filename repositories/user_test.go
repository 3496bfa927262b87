package repositories

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"event-chat/errors"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	// When a user is created
	created, err := repo.CreateUser("Ava Moreau", "5550000001", true)
	req.NoError(err)
	req.NoError(uuid.Validate(created.ID))
	req.True(created.Organizer)

	// Then it is reachable by id and by phone
	byID, err := repo.FindUserByID(created.ID)
	req.NoError(err)
	req.Equal(created, byID)

	byPhone, err := repo.FindUserByPhone("5550000001")
	req.NoError(err)
	req.Equal(created, byPhone)
}

func TestUserRepository_TrimsNameAndPhone(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	created, err := repo.CreateUser("  Noah  ", " 5551234567 ", false)
	req.NoError(err)
	req.Equal("Noah", created.Name)
	req.Equal("5551234567", created.Phone)

	_, err = repo.CreateUser("  ", "5559999999", false)
	req.ErrorIs(err, errors.ErrMalformedSubmission)
}

func TestUserRepository_PhoneIsUnique(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.CreateUser("Ava", "5550000001", false)
	req.NoError(err)

	_, err = repo.CreateUser("Imposter", "5550000001", false)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_MissingUser(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.FindUserByID(uuid.NewString())
	req.ErrorIs(err, errors.ErrUserNotFound)
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = repo.FindUserByPhone("5550000000")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_ListUsers(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.CreateUser("Ava", "5550000001", true)
	req.NoError(err)
	_, err = repo.CreateUser("Noah", "5551234567", false)
	req.NoError(err)

	users, err := repo.ListUsers()
	req.NoError(err)
	req.Len(users, 2)
}
