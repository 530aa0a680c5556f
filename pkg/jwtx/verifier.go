package jwtx

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is the only failure Verify reports. Why a token was
	// rejected is logged at debug level and never returned.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	errAlgMismatch = errors.New("jwtx: algorithm mismatch")
	errEmptyKey    = errors.New("jwtx: empty signing key")
)

// Verifier checks HMAC-signed tokens against a single pinned algorithm.
type Verifier struct {
	alg    string
	logger *slog.Logger
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithAlgorithm pins the accepted algorithm (default HS256).
func WithAlgorithm(alg string) VerifierOption {
	return func(v *Verifier) { v.alg = alg }
}

// WithLogger sets where rejection reasons are logged.
func WithLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// NewVerifier builds a Verifier. Pinning anything outside the HMAC family is
// an error.
func NewVerifier(opts ...VerifierOption) (*Verifier, error) {
	v := &Verifier{alg: DefaultAlgorithm}
	for _, opt := range opts {
		opt(v)
	}

	method, err := hmacMethod(v.alg)
	if err != nil {
		return nil, err
	}
	v.alg = method.Alg()

	return v, nil
}

// Alg reports the pinned algorithm.
func (v *Verifier) Alg() string { return v.alg }

// Verify checks the token's signature with signingKey and returns its claims.
//
// Issuer, audience and lifetime are deliberately not checked here: a token
// whose exp has passed still verifies as long as its signature does, so
// refresh flows can read it. Use Claims.ValidateExpiryAt and friends for
// policy. Any failure (malformed input, wrong key, algorithm other than the
// pinned one, including "none") yields ErrInvalidToken and nothing else.
func (v *Verifier) Verify(tokenStr string, signingKey []byte) (*Claims, error) {
	claims, err := v.parse(tokenStr, signingKey)
	if err != nil {
		v.log().Debug("token rejected", slog.String("reason", reason(err)), slog.Any("err", err))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserIDFromToken verifies the token and returns its numeric user id.
func (v *Verifier) UserIDFromToken(tokenStr string, signingKey []byte) (int64, error) {
	claims, err := v.Verify(tokenStr, signingKey)
	if err != nil {
		return 0, err
	}
	return claims.UserIDValue()
}

func (v *Verifier) parse(tokenStr string, signingKey []byte) (*Claims, error) {
	if len(signingKey) == 0 {
		return nil, errEmptyKey
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		// WithValidMethods already pins the name; also insist on the HMAC
		// implementation so a key can never be fed to another verifier.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %v", errAlgMismatch, t.Header["alg"])
		}
		if !strings.EqualFold(t.Method.Alg(), v.alg) {
			return nil, fmt.Errorf("%w: %s", errAlgMismatch, t.Method.Alg())
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}
	return claims, nil
}

func (v *Verifier) log() *slog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return slog.Default()
}

// reason buckets a parse error for operators.
func reason(err error) string {
	switch {
	case errors.Is(err, errEmptyKey):
		return "empty_key"
	case errors.Is(err, errAlgMismatch):
		return "algorithm"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return "invalid"
	}
}
