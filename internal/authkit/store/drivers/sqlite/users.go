package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/authkit/internal/authkit/domain"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
)

type usersRepo struct {
	db  dbtx
	now func() time.Time
}

const userColumns = `id, username, email, password_hash, password_salt, password_iterations, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	now := r.now().UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, password_salt, password_iterations, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.Password.Hash, u.Password.Salt, u.Password.Iterations, toUnix(now), toUnix(now),
	)
	if err != nil {
		return domain.User{}, mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, err
	}

	u.ID = id
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) UpdatePassword(ctx context.Context, userID int64, rec cryptox.PasswordRecord) error {
	return mapAffected(r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, password_salt = ?, password_iterations = ?, updated_at = ?
		WHERE id = ?`,
		rec.Hash, rec.Salt, rec.Iterations, toUnix(r.now()), userID,
	))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                domain.User
		created, updated int64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email,
		&u.Password.Hash, &u.Password.Salt, &u.Password.Iterations,
		&created, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}
