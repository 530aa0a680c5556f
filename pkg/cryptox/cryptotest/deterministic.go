// Package cryptotest provides reproducible randomness for test fixtures and
// seeding.
//
// Nothing here is a cryptox.SystemRandom and none of it is reachable from
// configuration. Only _test.go files may import this package; guard_test.go
// fails the build's tests if production code does.
package cryptotest

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// DefaultSeed is the fixed seed used by NewDeterministicSource.
var DefaultSeed = [32]byte{
	'a', 'u', 't', 'h', 'k', 'i', 't', '-', 't', 'e', 's', 't', '-', 'o', 'n', 'l',
	'y', '-', 'n', 'o', 't', '-', 'f', 'o', 'r', '-', 'p', 'r', 'o', 'd', '!', '!',
}

// DeterministicSource yields the same byte stream for the same seed.
type DeterministicSource struct {
	mu  sync.Mutex
	rng *rand.ChaCha8
}

// NewDeterministicSource seeds a source with DefaultSeed.
func NewDeterministicSource() *DeterministicSource {
	return NewSeededSource(DefaultSeed)
}

// NewSeededSource seeds a source with seed.
func NewSeededSource(seed [32]byte) *DeterministicSource {
	return &DeterministicSource{rng: rand.NewChaCha8(seed)}
}

// Bytes returns the next n bytes of the stream.
func (d *DeterministicSource) Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cryptotest: length must be positive, got %d", n)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, n)
	_, _ = d.rng.Read(buf) // ChaCha8.Read never fails
	return buf, nil
}

// DeterministicBytes returns the first n bytes of a freshly seeded stream, so
// repeated calls return the same slice.
func DeterministicBytes(n int) []byte {
	b, err := NewDeterministicSource().Bytes(n)
	if err != nil {
		panic(err)
	}
	return b
}

// FailingSource always returns err, for exercising entropy failure paths.
type FailingSource struct{ Err error }

func (f FailingSource) Bytes(int) ([]byte, error) { return nil, f.Err }
