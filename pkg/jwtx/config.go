package jwtx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithm is the signing algorithm pinned when none is configured.
const DefaultAlgorithm = "HS256"

// JTIGenerator produces the unique id placed in the "jti" claim. It may block
// or perform I/O; issuance waits for it and aborts if it fails.
type JTIGenerator func(ctx context.Context) (string, error)

var (
	ErrInvalidValidFor      = errors.New("jwtx: validity duration must be positive")
	ErrMissingSigningKey    = errors.New("jwtx: signing key is required")
	ErrMissingJTIGenerator  = errors.New("jwtx: jti generator is required")
	ErrUnsupportedAlgorithm = errors.New("jwtx: unsupported signing algorithm")
)

// ConfigError names the IssuerConfig field that failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("jwtx: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IssuerConfig holds everything needed to mint access tokens. It is copied
// into the Issuer at construction and never mutated afterwards.
type IssuerConfig struct {
	SigningKey []byte // Required: HMAC key material
	Algorithm  string // Optional: HS256 (default), HS384 or HS512

	Issuer   string // Optional: "iss" claim
	Audience string // Optional: "aud" claim

	NotBefore time.Duration // Optional: offset from issuance for "nbf"
	ValidFor  time.Duration // Required: lifetime of an access token, > 0

	JTIGenerator JTIGenerator // Required: source of "jti" values

	Random cryptox.RandomSource // Optional: refresh token entropy (default: system)
	Now    func() time.Time     // Optional: clock (default: time.Now)
}

// Validate reports every configuration problem at once. Each problem is a
// *ConfigError wrapping one of the sentinel errors above.
func (c IssuerConfig) Validate() error {
	var errs []error

	if c.ValidFor <= 0 {
		errs = append(errs, &ConfigError{Field: "ValidFor", Err: ErrInvalidValidFor})
	}
	if len(c.SigningKey) == 0 {
		errs = append(errs, &ConfigError{Field: "SigningKey", Err: ErrMissingSigningKey})
	}
	if c.JTIGenerator == nil {
		errs = append(errs, &ConfigError{Field: "JTIGenerator", Err: ErrMissingJTIGenerator})
	}
	if _, err := hmacMethod(c.Algorithm); err != nil {
		errs = append(errs, &ConfigError{Field: "Algorithm", Err: err})
	}

	return errors.Join(errs...)
}

// hmacMethod resolves an algorithm name to its HMAC signing method. Only the
// symmetric family is accepted; "none" and asymmetric names are refused.
func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}
