package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authkit/internal/authkit/store"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrTokenExpired       = errors.New("token_expired")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrUsernameTaken      = errors.New("username_taken")
)

// dummyPassword is hashed once at startup so that unknown usernames cost the
// same derivation as a wrong password.
const dummyPassword = "authkit-dummy-password"

// Config carries the values AuthService needs besides its collaborators.
type Config struct {
	SigningKey []byte
	Issuer     string // expected "iss"; empty disables the check
	Audience   string // expected "aud"; empty disables the check
	RefreshTTL time.Duration
	LoginLimit RateLimitConfig
	Now        func() time.Time
}

// AuthService implements registration, login, refresh rotation and access
// token authentication on top of the token and password primitives.
type AuthService struct {
	store    store.Store
	issuer   *jwtx.Issuer
	verifier *jwtx.Verifier
	hasher   *cryptox.Hasher

	signingKey []byte
	iss        string
	aud        string
	refreshTTL time.Duration
	now        func() time.Time

	limiter *keyedLimiter
	dummy   cryptox.PasswordRecord
}

func NewAuthService(
	st store.Store,
	issuer *jwtx.Issuer,
	verifier *jwtx.Verifier,
	hasher *cryptox.Hasher,
	cfg Config,
) (*AuthService, error) {
	if st == nil || issuer == nil || verifier == nil || hasher == nil {
		return nil, errors.New("service: missing dependency")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, jwtx.ErrMissingSigningKey
	}
	if cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("service: refresh ttl must be positive, got %s", cfg.RefreshTTL)
	}
	if issuer.Alg() != verifier.Alg() {
		return nil, fmt.Errorf("%w: issuer signs %s, verifier expects %s",
			jwtx.ErrUnsupportedAlgorithm, issuer.Alg(), verifier.Alg())
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	dummy, err := hasher.NewRecord(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("service: dummy hash: %w", err)
	}

	return &AuthService{
		store:      st,
		issuer:     issuer,
		verifier:   verifier,
		hasher:     hasher,
		signingKey: append([]byte(nil), cfg.SigningKey...),
		iss:        cfg.Issuer,
		aud:        cfg.Audience,
		refreshTTL: cfg.RefreshTTL,
		now:        now,
		limiter:    newKeyedLimiter(cfg.LoginLimit, now()),
		dummy:      dummy,
	}, nil
}
