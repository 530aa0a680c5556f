package jwtx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

var ErrJTIGeneration = errors.New("jwtx: generate jti")

// AccessToken is a signed, compact JWT plus the whole number of seconds it
// stays valid from issuance.
type AccessToken struct {
	Token     string `json:"access_token"`
	ExpiresIn int    `json:"expires_in"`
}

// Issuer mints access and refresh tokens. It holds no mutable state and is
// safe for concurrent use.
type Issuer struct {
	cfg    IssuerConfig
	method *jwt.SigningMethodHMAC
}

// NewIssuer validates cfg and returns an Issuer. Configuration problems are
// reported here so issuance itself cannot fail on configuration grounds.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	method, _ := hmacMethod(cfg.Algorithm) // checked by Validate

	// Own the key so later writes to the caller's slice can't change signatures
	cfg.SigningKey = bytes.Clone(cfg.SigningKey)
	cfg.Algorithm = method.Alg()
	if cfg.Random == nil {
		cfg.Random = cryptox.SystemRandom{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Issuer{cfg: cfg, method: method}, nil
}

// Alg reports the signing algorithm in use.
func (i *Issuer) Alg() string { return i.method.Alg() }

// IssueAccessToken builds and signs the claims for one user. The jti
// generator runs first; if it fails, or ctx is cancelled before signing,
// nothing is signed and no token is returned.
func (i *Issuer) IssueAccessToken(ctx context.Context, userID int64, userName, email string) (AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return AccessToken{}, err
	}

	jti, err := i.cfg.JTIGenerator(ctx)
	if err != nil {
		return AccessToken{}, fmt.Errorf("%w: %w", ErrJTIGeneration, err)
	}
	if jti == "" {
		return AccessToken{}, fmt.Errorf("%w: empty id", ErrJTIGeneration)
	}

	// Last point where the caller can still walk away
	if err := ctx.Err(); err != nil {
		return AccessToken{}, err
	}

	claims := NewAccessClaims(
		userID,
		userName, email, jti,
		i.cfg.Issuer, i.cfg.Audience,
		i.cfg.Now(),
		i.cfg.NotBefore, i.cfg.ValidFor,
	)

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return AccessToken{}, fmt.Errorf("jwtx: sign access token: %w", err)
	}

	return AccessToken{
		Token:     signed,
		ExpiresIn: int(i.cfg.ValidFor / time.Second),
	}, nil
}

// IssueRefreshToken returns an opaque refresh token with no embedded claims.
// Its lifetime and rotation are the caller's business.
func (i *Issuer) IssueRefreshToken() (string, error) {
	return cryptox.GenerateRefreshToken(i.cfg.Random, cryptox.RefreshTokenSize)
}
