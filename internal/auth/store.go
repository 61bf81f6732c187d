package auth

import (
	"context"
	"time"

	"github.com/zapgroups/admin-api/internal/model"
)

// NewUser carries the column values for account creation. PasswordHash is
// already hashed; the store never sees plaintext.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	Department   string
}

// UserStore is the account persistence the session manager depends on.
// Implementations return ErrNotFound when no row matches and
// ErrDuplicateEmail on a unique-email conflict.
type UserStore interface {
	Create(ctx context.Context, nu NewUser) (model.User, error)
	ByEmail(ctx context.Context, email string) (model.User, error)
	ByID(ctx context.Context, id uint64) (model.User, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

// TokenStore persists refresh-token records. Rotate must atomically revoke
// every active record for the user and insert next in a single transaction,
// so two concurrent refresh calls for one account cannot both commit a
// trusted successor.
type TokenStore interface {
	Insert(ctx context.Context, rec model.RefreshToken) error
	ActiveByUser(ctx context.Context, userID uint64, now time.Time) ([]model.RefreshToken, error)
	Rotate(ctx context.Context, userID uint64, next model.RefreshToken) error
	RevokeAll(ctx context.Context, userID uint64) error
}
