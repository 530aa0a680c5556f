package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"AUTH_SIGNING_KEY", "AUTH_ALGORITHM", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_NOT_BEFORE",
		"AUTH_ACCESS_TOKEN_TTL", "AUTH_REFRESH_TOKEN_TTL", "AUTH_JTI_FORMAT", "AUTH_PBKDF2_ITERATIONS",
		"AUTH_LOGIN_RATE", "AUTH_LOGIN_BURST", "AUTH_DATABASE_FILE", "HOUSEKEEPING_INTERVAL",
		"ENV", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Empty(t, cfg.SigningKey)
	require.Equal(t, "HS256", cfg.Algorithm)
	require.Equal(t, "authkit", cfg.Issuer)
	require.Equal(t, "authkit", cfg.Audience)
	require.Zero(t, cfg.NotBefore)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, "ulid", cfg.JTIFormat)
	require.Equal(t, 10_000, cfg.PBKDF2Iterations)
	require.Equal(t, 5, cfg.LoginRate)
	require.Equal(t, 5, cfg.LoginBurst)
	require.Equal(t, "authkit.db", cfg.DatabaseFile)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", "secret")
	t.Setenv("AUTH_ALGORITHM", "hs512")
	t.Setenv("AUTH_NOT_BEFORE", "30s")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "5") // bare integers are minutes
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "not-a-duration")
	t.Setenv("AUTH_JTI_FORMAT", "UUID")
	t.Setenv("AUTH_PBKDF2_ITERATIONS", "60000")
	t.Setenv("AUTH_LOGIN_RATE", "x")

	cfg := LoadConfig()
	require.Equal(t, "secret", cfg.SigningKey)
	require.Equal(t, "HS512", cfg.Algorithm)
	require.Equal(t, 30*time.Second, cfg.NotBefore)
	require.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL, "unparseable falls back to default")
	require.Equal(t, "uuid", cfg.JTIFormat)
	require.Equal(t, 60_000, cfg.PBKDF2Iterations)
	require.Equal(t, 5, cfg.LoginRate)
}
