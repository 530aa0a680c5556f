package jwtx_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/cryptox/cryptotest"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// fixedJTI hands out a predictable sequence of ids.
func fixedJTI(ids ...string) jwtx.JTIGenerator {
	n := 0
	return func(context.Context) (string, error) {
		id := ids[n%len(ids)]
		n++
		return id, nil
	}
}

func testConfig(now time.Time) jwtx.IssuerConfig {
	return jwtx.IssuerConfig{
		SigningKey:   testKey,
		Issuer:       "authkit-test",
		Audience:     "authkit-api",
		ValidFor:     15 * time.Minute,
		JTIGenerator: fixedJTI("jti-1", "jti-2", "jti-3"),
		Random:       cryptotest.NewDeterministicSource(),
		Now:          func() time.Time { return now },
	}
}

func newTestIssuer(t *testing.T, cfg jwtx.IssuerConfig) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer(cfg)
	require.NoError(t, err)
	return iss
}

func newTestVerifier(t *testing.T, opts ...jwtx.VerifierOption) *jwtx.Verifier {
	t.Helper()
	v, err := jwtx.NewVerifier(opts...)
	require.NoError(t, err)
	return v
}

// segments splits a compact JWS into its three parts.
func segments(t *testing.T, token string) []string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3, "compact JWS should have three parts")
	return parts
}

// decodeSegment returns a header or payload segment as a generic map.
func decodeSegment(t *testing.T, seg string) map[string]any {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()

	var out map[string]any
	require.NoError(t, dec.Decode(&out))
	return out
}

// flip replaces the character at i with a different base64url character.
func flip(s string, i int) string {
	b := []byte(s)
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}
