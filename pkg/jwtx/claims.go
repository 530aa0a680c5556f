package jwtx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrMissingClaim = errors.New("jwtx: missing claim")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// UserIDClaim is the name of the claim carrying the numeric user id.
const UserIDClaim = "id"

// Claims are the access-token claims: the registered set (sub, jti, iat, nbf,
// exp, iss, aud) plus the user's email and numeric id.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user
	Email string `json:"email,omitempty"`

	// UserID is emitted as a JSON number. It is kept raw on the way in so a
	// signed token with an odd id still verifies; UserIDValue judges it.
	UserID json.RawMessage `json:"id,omitempty"`
}

// MarshalJSON writes a single audience as a bare string and several as an
// array, leaving jwt.MarshalSingleStringAsArray alone.
func (c Claims) MarshalJSON() ([]byte, error) {
	type plain Claims

	var aud any
	switch len(c.Audience) {
	case 0:
	case 1:
		aud = c.Audience[0]
	default:
		aud = []string(c.Audience)
	}

	return json.Marshal(struct {
		plain
		Audience any `json:"aud,omitempty"`
	}{plain: plain(c), Audience: aud})
}

// NewAccessClaims builds the claim set for one issuance. issuedAt is rounded
// to the nearest whole second.
func NewAccessClaims(
	userID int64,
	userName, email, jti string,
	issuer, audience string,
	issuedAt time.Time,
	notBefore, validFor time.Duration,
) Claims {
	iat := issuedAt.UTC().Round(time.Second)

	var aud jwt.ClaimStrings
	if audience != "" {
		aud = jwt.ClaimStrings{audience}
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userName,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(iat),
			NotBefore: jwt.NewNumericDate(iat.Add(notBefore)),
			ExpiresAt: jwt.NewNumericDate(iat.Add(validFor)),
			ID:        jti,
		},
		Email:  email,
		UserID: json.RawMessage(strconv.FormatInt(userID, 10)),
	}
}

// UserIDValue parses the "id" claim: a JSON integer, or a string holding one.
func (c *Claims) UserIDValue() (int64, error) {
	raw := bytes.TrimSpace(c.UserID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: %s", ErrMissingClaim, UserIDClaim)
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidClaim, UserIDClaim)
		}
	} else {
		text = string(raw)
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidClaim, UserIDClaim)
	}
	return id, nil
}

// WellFormed checks the claims every consumer relies on: sub, jti and id.
func (c *Claims) WellFormed() error {
	switch {
	case c.Subject == "":
		return fmt.Errorf("%w: sub", ErrMissingClaim)
	case c.ID == "":
		return fmt.Errorf("%w: jti", ErrMissingClaim)
	}

	_, err := c.UserIDValue()
	return err
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now(), 0)
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	return c.ValidateExpiryAt(time.Now(), leeway)
}

// ValidateExpiryAt checks exp and nbf against now, allowing leeway either side.
// Verification never does this on its own; callers pick their own policy.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	now = now.UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
