// Package idx generates ULID identifiers: token ids ("jti") and refresh token
// record ids.
package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Zero represents the zero value ID, don't use this unless its a placeholder.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	globalOnce sync.Once
	global     *Generator
)

// Generator hands out ULIDs from a monotonic entropy source. Ids minted in
// the same millisecond still sort in creation order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator builds a Generator over entropy, typically crypto/rand.Reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0), // Max Monotonic Window
		now:     time.Now,
	}
}

// Next returns a new ID, or an error if the entropy source fails or the
// monotonic counter overflows within one millisecond.
func (g *Generator) Next() (ID, error) {
	return g.NextAt(g.now())
}

// NextAt is Next with an explicit timestamp.
func (g *Generator) NextAt(t time.Time) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		return Zero, err
	}
	return ID(u.String()), nil
}

func defaultGenerator() *Generator {
	globalOnce.Do(func() { global = NewGenerator(rand.Reader) })
	return global
}

// New returns a new ID from the process-wide generator. crypto/rand does not
// fail in practice, so a failure here panics rather than hand out Zero.
func New() ID {
	id, err := defaultGenerator().Next()
	if err != nil {
		panic("idx: failed to generate ULID: " + err.Error())
	}
	return id
}

// NewAt generates an ID at the provided time (UTC), useful for tests.
func NewAt(t time.Time) ID {
	id, err := defaultGenerator().NextAt(t)
	if err != nil {
		panic("idx: failed to generate ULID: " + err.Error())
	}
	return id
}

// Parse parses a ULID string into an ID and validates its form.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}

	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}

	return ID(s), nil
}

// MustParse parses or panics. Useful for hard-coded IDs in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

// String returns the canonical string form.
func (id ID) String() string { return string(id) }

// Time extracts the embedded UTC timestamp from the ID.
// If the ID is invalid or zero, it returns the zero time.
func (id ID) Time() time.Time {
	if id.IsZero() {
		return time.Time{}
	}

	u, err := ulid.ParseStrict(id.String())
	if err != nil {
		return time.Time{}
	}

	return ulid.Time(u.Time())
}

// Compare reports the lexical ordering between a and b: -1, 0 or +1.
func Compare(a, b ID) int {
	return strings.Compare(a.String(), b.String())
}
