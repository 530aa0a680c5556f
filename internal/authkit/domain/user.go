package domain

import (
	"time"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
)

type User struct {
	ID        int64 // assigned by the store, carried in the "id" claim
	Username  string
	Email     string
	Password  cryptox.PasswordRecord // PBKDF2 hash, salt and iteration count
	CreatedAt time.Time
	UpdatedAt time.Time
}
