package cryptox_test

import (
	"encoding/base64"
	"testing"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"pgregory.net/rapid"
)

// Hashing is a pure function of (password, salt, iterations).
func TestPropertyHashDeterministic(t *testing.T) {
	h, err := cryptox.NewHasher()
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(t *rapid.T) {
		password := rapid.String().Draw(t, "password")
		salt := rapid.SliceOfN(rapid.Byte(), 16, 64).Draw(t, "salt")

		if h.Hash(password, salt) != h.Hash(password, salt) {
			t.Fatal("hash is not deterministic")
		}
	})
}

// Verify accepts exactly the password that produced the hash.
func TestPropertyVerifyIffEqual(t *testing.T) {
	h, err := cryptox.NewHasher()
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(t *rapid.T) {
		password := rapid.StringMatching(`[a-zA-Z0-9!@#$%^&*]{1,32}`).Draw(t, "password")
		salt := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "salt")
		b64Salt := base64.StdEncoding.EncodeToString(salt)
		hash := h.Hash(password, salt)

		if !h.Verify(password, hash, b64Salt) {
			t.Fatal("correct password rejected")
		}

		// Single character mutation
		pos := rapid.IntRange(0, len(password)-1).Draw(t, "pos")
		mutated := []byte(password)
		mutated[pos] ^= 0x01
		if h.Verify(string(mutated), hash, b64Salt) {
			t.Fatalf("mutated password %q accepted", mutated)
		}
	})
}

// Two salts for one password give unrelated hashes.
func TestPropertySaltSensitivity(t *testing.T) {
	h, err := cryptox.NewHasher()
	if err != nil {
		t.Fatal(err)
	}

	rapid.Check(t, func(t *rapid.T) {
		password := rapid.String().Draw(t, "password")
		salt1 := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "salt1")
		salt2 := rapid.SliceOfN(rapid.Byte(), 32, 32).Filter(func(b []byte) bool {
			return string(b) != string(salt1)
		}).Draw(t, "salt2")

		if h.Hash(password, salt1) == h.Hash(password, salt2) {
			t.Fatal("distinct salts produced the same hash")
		}
	})
}

func TestPropertyRefreshTokensDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(10, 100).Draw(t, "count")
		seen := make(map[string]bool, count)

		for range count {
			token, err := cryptox.GenerateRefreshToken(cryptox.SystemRandom{}, cryptox.RefreshTokenSize)
			if err != nil {
				t.Fatalf("token generation failed: %v", err)
			}
			if seen[token] {
				t.Fatalf("duplicate token generated: %s", token)
			}
			seen[token] = true
		}
	})
}
