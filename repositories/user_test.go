package repositories

import (
	"chat-rooms/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repo := NewUserRepository(db)

	// When a user is created
	id, err := repo.CreateUser("alice", "$argon2id$fake-hash")
	req.NoError(err)
	req.NotEmpty(id)

	// Then it can be fetched by username
	user, err := repo.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal(id, user.ID)
	req.Equal("alice", user.Username)
	req.Equal("$argon2id$fake-hash", user.PasswordHash)
	req.False(user.CreatedAt.IsZero())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.CreateUser("alice", "hash-1")
	req.NoError(err)

	// A second signup for the same username must fail
	_, err = repo.CreateUser("alice", "hash-2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// And the original record is untouched
	user, err := repo.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal("hash-1", user.PasswordHash)
}

func TestUserRepository_Get_Unknown(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetUserByUsername("nobody")
	req.ErrorIs(err, errors.ErrNotFound)
}
