package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Configuration for PBKDF2-HMAC-SHA256 hashing.
const (
	MinIterations     = 10_000 // Lowest iteration count accepted for new hashes
	DefaultIterations = 10_000 // Iteration count used when none is configured
	keyLength         = 32     // 256-bit derived key
)

var ErrWeakIterations = errors.New("cryptox: iteration count below minimum")

// PasswordRecord is the stored form of a password: the derived key and salt
// (both base64) plus the iteration count they were produced with. Keeping the
// count on the record lets the default be raised without breaking old rows.
type PasswordRecord struct {
	Hash       string `json:"hash"`
	Salt       string `json:"salt"`
	Iterations int    `json:"iterations"`
}

// Hasher derives and verifies password hashes. A Hasher is immutable and
// safe for concurrent use.
type Hasher struct {
	iterations int
	random     RandomSource
}

// HasherOption configures a Hasher.
type HasherOption func(*Hasher)

// WithIterations sets the iteration count used for new hashes.
func WithIterations(n int) HasherOption {
	return func(h *Hasher) { h.iterations = n }
}

// WithRandomSource sets where salts are drawn from.
func WithRandomSource(src RandomSource) HasherOption {
	return func(h *Hasher) { h.random = src }
}

// NewHasher builds a Hasher, rejecting iteration counts below MinIterations.
func NewHasher(opts ...HasherOption) (*Hasher, error) {
	h := &Hasher{iterations: DefaultIterations}
	for _, opt := range opts {
		opt(h)
	}
	if h.iterations < MinIterations {
		return nil, fmt.Errorf("%w: %d < %d", ErrWeakIterations, h.iterations, MinIterations)
	}
	h.random = orSystem(h.random)
	return h, nil
}

// Iterations reports the iteration count applied to new hashes.
func (h *Hasher) Iterations() int { return h.iterations }

// Hash derives a 256-bit key from password and salt and returns it base64
// encoded. The result is fully determined by its inputs and the iteration count.
func (h *Hasher) Hash(password string, salt []byte) string {
	return derive(password, salt, h.iterations)
}

// Verify reports whether password hashes to hash under the base64 salt.
func (h *Hasher) Verify(password, hash, salt string) bool {
	return h.verify(password, hash, salt, h.iterations)
}

// NewSalt draws DefaultSaltSize fresh bytes.
func (h *Hasher) NewSalt() ([]byte, error) {
	return h.random.Bytes(DefaultSaltSize)
}

// NewRecord hashes password under a freshly drawn salt.
func (h *Hasher) NewRecord(password string) (PasswordRecord, error) {
	salt, err := h.NewSalt()
	if err != nil {
		return PasswordRecord{}, err
	}

	return PasswordRecord{
		Hash:       h.Hash(password, salt),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Iterations: h.iterations,
	}, nil
}

// VerifyRecord checks password against rec using the iteration count stored
// on the record rather than the current default.
func (h *Hasher) VerifyRecord(password string, rec PasswordRecord) bool {
	if rec.Iterations <= 0 {
		return false
	}
	return h.verify(password, rec.Hash, rec.Salt, rec.Iterations)
}

// NeedsRehash reports whether rec was derived with fewer iterations than the
// Hasher now uses.
func (h *Hasher) NeedsRehash(rec PasswordRecord) bool {
	return rec.Iterations < h.iterations
}

func (h *Hasher) verify(password, hash, salt string, iterations int) bool {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(deriveKey(password, rawSalt, iterations), want) == 1
}

func derive(password string, salt []byte, iterations int) string {
	return base64.StdEncoding.EncodeToString(deriveKey(password, salt, iterations))
}

func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)
}
