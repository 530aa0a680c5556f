package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// clockSkew absorbs iat rounding (up to half a second ahead) and small clock
// differences between issuing and authenticating hosts.
const clockSkew = time.Second

// Principal is the authenticated caller behind an access token.
type Principal struct {
	UserID    int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticate turns an access token into a Principal. Signature, issuer,
// audience and lifetime are all checked here, since verification alone
// ignores them. Expiry is reported as ErrTokenExpired so callers can ask for
// a refresh; everything else is ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.verifier.Verify(accessToken, s.signingKey)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	if err := claims.WellFormed(); err != nil {
		l.Debug("token rejected", slog.Any("err", err))
		return Principal{}, ErrUnauthenticated
	}
	if err := claims.ValidateIssuer(s.iss); err != nil {
		l.Debug("token rejected", slog.Any("err", err))
		return Principal{}, ErrUnauthenticated
	}
	if s.aud != "" {
		if err := claims.ValidateAudience([]string{s.aud}); err != nil {
			l.Debug("token rejected", slog.Any("err", err))
			return Principal{}, ErrUnauthenticated
		}
	}
	if err := claims.ValidateExpiryAt(s.now(), clockSkew); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return Principal{}, ErrTokenExpired
		}
		l.Debug("token rejected", slog.Any("err", err))
		return Principal{}, ErrUnauthenticated
	}

	userID, _ := claims.UserIDValue() // checked by WellFormed

	p := Principal{
		UserID:   userID,
		Username: claims.Subject,
		Email:    claims.Email,
		TokenID:  claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return p, nil
}
