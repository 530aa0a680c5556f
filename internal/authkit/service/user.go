package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/authkit/internal/authkit/domain"
	"github.com/aussiebroadwan/authkit/internal/authkit/store"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// Register creates a user with a freshly salted password record.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidRequest)
	}

	rec, err := s.hasher.NewRecord(password)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.store.Users().CreateUser(ctx, domain.User{
		Username: username,
		Email:    email,
		Password: rec,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.Int64("user_id", u.ID), slog.String("username", u.Username))
	return u, nil
}

// ChangePassword replaces the password of userID after checking the old one
// and drops every refresh token the user holds.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	l := slogx.FromContext(ctx)

	if newPassword == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidRequest)
	}

	u, err := s.store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyRecord(oldPassword, s.dummy)
			return ErrInvalidCredentials
		}
		return err
	}

	if !s.hasher.VerifyRecord(oldPassword, u.Password) {
		return ErrInvalidCredentials
	}

	rec, err := s.hasher.NewRecord(newPassword)
	if err != nil {
		return err
	}

	var dropped int64
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePassword(ctx, u.ID, rec); err != nil {
			return err
		}
		dropped, err = tx.RefreshTokens().DeleteUserRefreshTokens(ctx, u.ID)
		return err
	})
	if err != nil {
		return err
	}

	l.Info("password changed", slog.Int64("user_id", u.ID), slog.Int64("sessions_revoked", dropped))
	return nil
}
