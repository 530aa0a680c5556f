package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/authkit/internal/authkit/service"
	"github.com/aussiebroadwan/authkit/internal/authkit/store"
	"github.com/aussiebroadwan/authkit/internal/authkit/store/drivers/sqlite"
	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the wired dependencies of the authkit command.
// Token and storage components are built on first use so that commands like
// hash-password work without a signing key or database.
type Application struct {
	cfg    Config
	logger *slog.Logger

	stdin  io.Reader
	stdout io.Writer

	hasher   *cryptox.Hasher
	verifier *jwtx.Verifier

	db     store.Store
	issuer *jwtx.Issuer
	auth   *service.AuthService
}

type Option func(*options)

type options struct {
	stdin     io.Reader
	stdout    io.Writer
	logOutput io.Writer
}

// WithIO replaces stdin/stdout for command input and JSON output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *options) {
		o.stdin = in
		o.stdout = out
	}
}

// WithLogOutput sends logs somewhere other than stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// New creates an Application. Only configuration problems common to every
// command are reported here.
func New(cfg Config, opts ...Option) (*Application, error) {
	o := options{stdin: os.Stdin, stdout: os.Stdout, logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	app := &Application{
		cfg:    cfg,
		stdin:  o.stdin,
		stdout: o.stdout,
		logger: slogx.New(slogx.Config{
			Service: "authkit",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.logOutput,
		}),
	}

	hasher, err := cryptox.NewHasher(cryptox.WithIterations(cfg.PBKDF2Iterations))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_PBKDF2_ITERATIONS: %w", err)
	}
	app.hasher = hasher

	verifier, err := jwtx.NewVerifier(
		jwtx.WithAlgorithm(cfg.Algorithm),
		jwtx.WithLogger(app.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_ALGORITHM: %w", err)
	}
	app.verifier = verifier

	return app, nil
}

// Close releases the database, if one was opened.
func (app *Application) Close() error {
	if app.db == nil {
		return nil
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

func (app *Application) jtiGenerator() (jwtx.JTIGenerator, error) {
	switch app.cfg.JTIFormat {
	case "", "ulid":
		return jwtx.ULIDGenerator(), nil
	case "uuid":
		return jwtx.UUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("invalid AUTH_JTI_FORMAT %q: want ulid or uuid", app.cfg.JTIFormat)
	}
}

// initIssuer validates the token configuration once and builds the issuer.
func (app *Application) initIssuer() error {
	if app.issuer != nil {
		return nil
	}

	gen, err := app.jtiGenerator()
	if err != nil {
		return err
	}

	issuer, err := jwtx.NewIssuer(jwtx.IssuerConfig{
		SigningKey:   []byte(app.cfg.SigningKey),
		Algorithm:    app.cfg.Algorithm,
		Issuer:       app.cfg.Issuer,
		Audience:     app.cfg.Audience,
		NotBefore:    app.cfg.NotBefore,
		ValidFor:     app.cfg.AccessTokenTTL,
		JTIGenerator: gen,
	})
	if err != nil {
		return fmt.Errorf("invalid token configuration: %w", err)
	}
	app.issuer = issuer
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	if app.db != nil {
		return nil
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.db = db
	app.logger.Debug("database migrations applied", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices wires the auth service on top of the issuer and database.
func (app *Application) initServices() error {
	if app.auth != nil {
		return nil
	}
	if err := app.initIssuer(); err != nil {
		return err
	}
	if err := app.initDatabase(); err != nil {
		return err
	}

	auth, err := service.NewAuthService(app.db, app.issuer, app.verifier, app.hasher, service.Config{
		SigningKey: []byte(app.cfg.SigningKey),
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		RefreshTTL: app.cfg.RefreshTokenTTL,
		LoginLimit: service.RateLimitConfig{
			RequestsPerWindow: app.cfg.LoginRate,
			Window:            time.Minute,
			Burst:             app.cfg.LoginBurst,
		},
	})
	if err != nil {
		return err
	}
	app.auth = auth
	return nil
}

// runHousekeeping purges expired refresh tokens every interval until ctx ends.
func (app *Application) runHousekeeping(ctx context.Context) error {
	if err := app.initServices(); err != nil {
		return err
	}

	hk := service.NewHousekeepingService(app.auth, app.logger, app.cfg.HousekeepingInterval)
	hk.Start()

	<-ctx.Done()
	app.logger.Info("shutdown signal received")
	hk.Stop()
	return nil
}
