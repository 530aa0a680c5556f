package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/authkit/internal/authkit/domain"
	"github.com/aussiebroadwan/authkit/internal/authkit/store"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/idx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// Login checks username and password and issues a token pair.
//
// Unknown usernames and wrong passwords return the same error after the same
// amount of hashing work. Records hashed with fewer iterations than the
// current setting are upgraded in place.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	username = strings.TrimSpace(username)
	if username == "" {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	if !s.limiter.allow(username, now) {
		l.Warn("login rate limit exceeded",
			slog.String("username", username),
			slog.Duration("retry_after", s.limiter.retryAfter(username, now)),
		)
		return domain.TokenPair{}, ErrTooManyAttempts
	}

	user, err := s.store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyRecord(password, s.dummy)
			l.Info("login failed", slog.String("username", username))
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, err
	}

	if !s.hasher.VerifyRecord(password, user.Password) {
		l.Info("login failed", slog.String("username", username))
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.Password) {
		s.rehash(ctx, user, password)
	}

	pair, err := s.issuePair(ctx, s.store.RefreshTokens(), user, now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("login succeeded", slog.Int64("user_id", user.ID))
	return pair, nil
}

// rehash upgrades a stored record to the current iteration count. Failure is
// logged and does not fail the login.
func (s *AuthService) rehash(ctx context.Context, user domain.User, password string) {
	l := slogx.FromContext(ctx)

	rec, err := s.hasher.NewRecord(password)
	if err == nil {
		err = s.store.Users().UpdatePassword(ctx, user.ID, rec)
	}
	if err != nil {
		l.Warn("password rehash failed", slog.Int64("user_id", user.ID), slog.Any("err", err))
		return
	}

	l.Info("password rehashed",
		slog.Int64("user_id", user.ID),
		slog.Int("from_iterations", user.Password.Iterations),
		slog.Int("to_iterations", rec.Iterations),
	)
}

// Refresh rotates a refresh token. The access token may already be expired;
// it only has to carry a valid signature and the id of the refresh token's
// owner.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	if strings.TrimSpace(refreshToken) == "" {
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	userID, err := s.verifier.UserIDFromToken(accessToken, s.signingKey)
	if err != nil {
		l.Info("refresh rejected", slog.String("reason", "access_token"))
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	fp := cryptox.FingerprintToken(refreshToken)

	var pair domain.TokenPair
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		rec, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if rec.UserID != userID {
			l.Warn("refresh token presented for another user",
				slog.Int64("token_user_id", rec.UserID),
				slog.Int64("claimed_user_id", userID),
			)
			return ErrInvalidRefresh
		}
		if rec.Expired(now) {
			return ErrInvalidRefresh
		}

		if err := tx.RefreshTokens().DeleteRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		pair, err = s.issuePair(ctx, tx.RefreshTokens(), user, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("refresh token rotated", slog.Int64("user_id", userID))
	return pair, nil
}

// Logout forgets a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrInvalidRefresh
	}

	err := s.store.RefreshTokens().DeleteRefreshToken(ctx, cryptox.FingerprintToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidRefresh
	}
	return err
}

// PurgeExpired deletes refresh token records past their expiry.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.RefreshTokens().DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		return 0, err
	}
	slogx.FromContext(ctx).Info("expired refresh tokens purged", slog.Int64("count", n))
	return n, nil
}

func (s *AuthService) issuePair(
	ctx context.Context,
	tokens store.RefreshTokens,
	user domain.User,
	now time.Time,
) (domain.TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(ctx, user.ID, user.Username, user.Email)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.issuer.IssueRefreshToken()
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = tokens.CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access.Token,
		RefreshToken: refresh,
		TokenType:    domain.TokenType,
		ExpiresIn:    access.ExpiresIn,
	}, nil
}
