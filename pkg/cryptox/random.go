package cryptox

import (
	"crypto/rand"
	"fmt"
)

// DefaultSaltSize is the number of random bytes drawn for a password salt.
const DefaultSaltSize = 32

// RandomSource supplies random byte sequences of a requested length.
type RandomSource interface {
	Bytes(n int) ([]byte, error)
}

// SystemRandom reads from the operating system CSPRNG. It is the only
// RandomSource production code should ever construct.
type SystemRandom struct{}

// Bytes returns n bytes from crypto/rand.
func (SystemRandom) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cryptox: random length must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("cryptox: read system entropy: %w", err)
	}
	return buf, nil
}

// RandomBytes returns n bytes from the system source.
func RandomBytes(n int) ([]byte, error) {
	return SystemRandom{}.Bytes(n)
}

// orSystem falls back to SystemRandom when src is nil.
func orSystem(src RandomSource) RandomSource {
	if src == nil {
		return SystemRandom{}
	}
	return src
}
