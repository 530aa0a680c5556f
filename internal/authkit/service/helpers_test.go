package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/authkit/internal/authkit/service"
	"github.com/aussiebroadwan/authkit/internal/authkit/store/drivers/sqlite"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/cryptox/cryptotest"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc    *service.AuthService
	store  *sqlite.Store
	hasher *cryptox.Hasher
	clock  *clock
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	iterations int
	limit      service.RateLimitConfig
}

func withIterations(n int) fixtureOption {
	return func(c *fixtureConfig) { c.iterations = n }
}

func withLoginLimit(l service.RateLimitConfig) fixtureOption {
	return func(c *fixtureConfig) { c.limit = l }
}

func issuerConfig(clk *clock, issuer string) jwtx.IssuerConfig {
	return jwtx.IssuerConfig{
		SigningKey:   testKey,
		Algorithm:    "HS256",
		Issuer:       issuer,
		Audience:     "authkit",
		ValidFor:     15 * time.Minute,
		JTIGenerator: jwtx.ULIDGenerator(),
		Random:       cryptotest.NewDeterministicSource(),
		Now:          clk.now,
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	fc := fixtureConfig{iterations: cryptox.DefaultIterations}
	for _, opt := range opts {
		opt(&fc)
	}

	clk := &clock{t: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)}

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "authkit.db"), sqlite.WithClock(clk.now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	iss, err := jwtx.NewIssuer(issuerConfig(clk, "authkit"))
	require.NoError(t, err)

	ver, err := jwtx.NewVerifier(jwtx.WithAlgorithm("HS256"))
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher(
		cryptox.WithIterations(fc.iterations),
		cryptox.WithRandomSource(cryptotest.NewDeterministicSource()),
	)
	require.NoError(t, err)

	svc, err := service.NewAuthService(st, iss, ver, hasher, service.Config{
		SigningKey: testKey,
		Issuer:     "authkit",
		Audience:   "authkit",
		RefreshTTL: time.Hour,
		LoginLimit: fc.limit,
		Now:        clk.now,
	})
	require.NoError(t, err)

	return &fixture{svc: svc, store: st, hasher: hasher, clock: clk}
}

func (f *fixture) register(t *testing.T, username, password string) int64 {
	t.Helper()
	u, err := f.svc.Register(context.Background(), username, username+"@example.com", password)
	require.NoError(t, err)
	return u.ID
}
