package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/authkit/internal/authkit/domain"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories so a transaction can only be opened from the root.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped view of the repositories.
type Tx interface {
	Users() Users
	RefreshTokens() RefreshTokens
}

type Users interface {
	// CreateUser inserts u and returns it with the assigned ID and timestamps.
	// A taken username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// UpdatePassword replaces the stored password record and bumps updated_at.
	UpdatePassword(ctx context.Context, userID int64, rec cryptox.PasswordRecord) error
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash looks a record up by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes one record; ErrNotFound if it is already gone.
	DeleteRefreshToken(ctx context.Context, hash string) error

	// DeleteUserRefreshTokens drops every session of a user (password change).
	DeleteUserRefreshTokens(ctx context.Context, userID int64) (int64, error)

	// DeleteExpiredRefreshTokens is housekeeping; it returns the number removed.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}
