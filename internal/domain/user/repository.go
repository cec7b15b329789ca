package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")

	// ErrCharacterNotFound is returned by character lookups for unknown IDs.
	ErrCharacterNotFound = errors.New("character not found")
)

type Repository interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) error
	SearchPlayers(ctx context.Context, f PlayerFilter) ([]User, error)
	SetLodestone(ctx context.Context, id uuid.UUID, c LodestoneCharacter) error
	ClearLodestone(ctx context.Context, id uuid.UUID) error
	ListLinkedLodestone(ctx context.Context, limit, offset int) ([]User, error)
}
