package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
)

type Config struct {
	SigningKey string // Required for token commands: HMAC secret, used as its UTF-8 bytes

	Algorithm       string        // Optional: HS256, HS384 or HS512 (default: HS256)
	Issuer          string        // Optional: "iss" claim and expected issuer (default: authkit)
	Audience        string        // Optional: "aud" claim and expected audience (default: authkit)
	NotBefore       time.Duration // Optional: nbf offset from iat (default: 0)
	AccessTokenTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Optional: refresh token lifetime (default: 7 days)
	JTIFormat       string        // Optional: ulid or uuid (default: ulid)

	PBKDF2Iterations int // Optional: iterations for new password hashes (default: 10000, min: 10000)
	LoginRate        int // Optional: login attempts per minute per username (default: 5, 0 disables)
	LoginBurst       int // Optional: login burst per username (default: 5)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./authkit.db)
	HousekeepingInterval time.Duration // Optional: purge interval for the housekeep command (default: 1h)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	return Config{
		SigningKey:           os.Getenv("AUTH_SIGNING_KEY"),
		Algorithm:            strings.ToUpper(getEnvOrDefault("AUTH_ALGORITHM", jwtx.DefaultAlgorithm)),
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "authkit"),
		Audience:             getEnvOrDefault("AUTH_AUDIENCE", "authkit"),
		NotBefore:            getEnvDurationOrDefault("AUTH_NOT_BEFORE", 0),
		AccessTokenTTL:       getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:      getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		JTIFormat:            strings.ToLower(getEnvOrDefault("AUTH_JTI_FORMAT", "ulid")),
		PBKDF2Iterations:     getEnvIntOrDefault("AUTH_PBKDF2_ITERATIONS", cryptox.DefaultIterations),
		LoginRate:            getEnvIntOrDefault("AUTH_LOGIN_RATE", 5),
		LoginBurst:           getEnvIntOrDefault("AUTH_LOGIN_BURST", 5),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "authkit.db"),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
