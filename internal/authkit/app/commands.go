package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

type command struct {
	args  string // argument synopsis for usage output
	nargs int
	help  string
	run   func(app *Application, ctx context.Context, args []string) (any, error)
}

var commands = map[string]command{
	"migrate": {
		help: "create or upgrade the database schema",
		run:  (*Application).cmdMigrate,
	},
	"hash-password": {
		help: "hash the password read from stdin",
		run:  (*Application).cmdHashPassword,
	},
	"register": {
		args: "<username> <email>", nargs: 2,
		help: "create a user; password read from stdin",
		run:  (*Application).cmdRegister,
	},
	"login": {
		args: "<username>", nargs: 1,
		help: "issue a token pair; password read from stdin",
		run:  (*Application).cmdLogin,
	},
	"refresh": {
		args: "<access-token> <refresh-token>", nargs: 2,
		help: "rotate a refresh token",
		run:  (*Application).cmdRefresh,
	},
	"logout": {
		args: "<refresh-token>", nargs: 1,
		help: "revoke a refresh token",
		run:  (*Application).cmdLogout,
	},
	"change-password": {
		args: "<user-id>", nargs: 1,
		help: "old and new password read from stdin, one per line",
		run:  (*Application).cmdChangePassword,
	},
	"verify": {
		args: "<access-token>", nargs: 1,
		help: "authenticate an access token",
		run:  (*Application).cmdVerify,
	},
	"purge": {
		help: "delete expired refresh tokens",
		run:  (*Application).cmdPurge,
	},
	"housekeep": {
		help: "purge expired refresh tokens periodically until interrupted",
		run:  (*Application).cmdHousekeep,
	},
}

// Usage writes the command synopsis.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: authkit <command> [args]")
	fmt.Fprintln(w)
	for _, name := range []string{
		"migrate", "hash-password", "register", "login", "refresh",
		"logout", "change-password", "verify", "purge", "housekeep",
	} {
		c := commands[name]
		fmt.Fprintf(w, "  %-16s %-32s %s\n", name, c.args, c.help)
	}
}

// Run executes one command and writes its JSON result to stdout. Failures
// are written as {"error": "..."} and returned.
func (app *Application) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	if len(args)-1 != cmd.nargs {
		return fmt.Errorf("%w: authkit %s %s", ErrUsage, name, cmd.args)
	}

	ctx = slogx.WithOperation(slogx.WithContext(ctx, app.logger), name)

	out, err := cmd.run(app, ctx, args[1:])
	if err != nil {
		slogx.FromContext(ctx).Debug("command failed", "error", err)
		_ = app.writeJSON(map[string]string{"error": err.Error()})
		return err
	}
	if out == nil {
		return nil
	}
	return app.writeJSON(out)
}

func (app *Application) writeJSON(v any) error {
	enc := json.NewEncoder(app.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readLines reads n lines from stdin, stripping line endings.
func (app *Application) readLines(n int) ([]string, error) {
	sc := bufio.NewScanner(app.stdin)
	lines := make([]string, 0, n)
	for len(lines) < n && sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(lines) < n {
		return nil, fmt.Errorf("%w: expected %d line(s) on stdin", ErrUsage, n)
	}
	return lines, nil
}

func (app *Application) readPassword() (string, error) {
	lines, err := app.readLines(1)
	if err != nil {
		return "", err
	}
	return lines[0], nil
}

func (app *Application) cmdMigrate(_ context.Context, _ []string) (any, error) {
	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ok", "database": app.cfg.DatabaseFile}, nil
}

func (app *Application) cmdHashPassword(_ context.Context, _ []string) (any, error) {
	password, err := app.readPassword()
	if err != nil {
		return nil, err
	}
	return app.hasher.NewRecord(password)
}

type userView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (app *Application) cmdRegister(ctx context.Context, args []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	password, err := app.readPassword()
	if err != nil {
		return nil, err
	}

	u, err := app.auth.Register(ctx, args[0], args[1], password)
	if err != nil {
		return nil, err
	}
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func (app *Application) cmdLogin(ctx context.Context, args []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	password, err := app.readPassword()
	if err != nil {
		return nil, err
	}
	return app.auth.Login(ctx, args[0], password)
}

func (app *Application) cmdRefresh(ctx context.Context, args []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	return app.auth.Refresh(ctx, args[0], args[1])
}

func (app *Application) cmdLogout(ctx context.Context, args []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	if err := app.auth.Logout(ctx, args[0]); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ok"}, nil
}

func (app *Application) cmdChangePassword(ctx context.Context, args []string) (any, error) {
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: user id must be an integer", ErrUsage)
	}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	lines, err := app.readLines(2)
	if err != nil {
		return nil, err
	}
	if err := app.auth.ChangePassword(ctx, userID, lines[0], lines[1]); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ok"}, nil
}

func (app *Application) cmdVerify(ctx context.Context, args []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	return app.auth.Authenticate(ctx, args[0])
}

func (app *Application) cmdPurge(ctx context.Context, _ []string) (any, error) {
	if err := app.initServices(); err != nil {
		return nil, err
	}
	n, err := app.auth.PurgeExpired(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"deleted": n}, nil
}

func (app *Application) cmdHousekeep(ctx context.Context, _ []string) (any, error) {
	return nil, app.runHousekeeping(ctx)
}
