package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/authkit/internal/authkit/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	args := os.Args[1:]
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		app.Usage(os.Stderr)
		return 2
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Printf("failed to initialize application: %v", err)
		return 1
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, args); err != nil {
		if errors.Is(err, app.ErrUsage) {
			log.Print(err)
			app.Usage(os.Stderr)
			return 2
		}
		return 1
	}
	return 0
}
