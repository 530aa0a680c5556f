package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// RefreshTokenSize is the number of random bytes behind a refresh token
// (256 bits of entropy, 44 chars standard base64).
const RefreshTokenSize = 32

// GenerateRefreshToken draws size bytes from src and returns them standard
// base64 encoded. The token carries no claims; anything it refers to lives in
// the caller's store. Sizes below RefreshTokenSize are refused.
func GenerateRefreshToken(src RandomSource, size int) (string, error) {
	if size < RefreshTokenSize {
		return "", fmt.Errorf("cryptox: refresh token size must be at least %d bytes, got %d", RefreshTokenSize, size)
	}

	buf, err := orSystem(src).Bytes(size)
	if err != nil {
		return "", fmt.Errorf("cryptox: generate refresh token: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// This is used to store hashed tokens in databases, allowing lookup without
// storing the original token value.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
