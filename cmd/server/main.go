// Package main is the entry point for the wikishelf server.
//
// Its job is deliberately small:
//  1. Load configuration (a .env file if present, then the environment)
//  2. Create the logger
//  3. Build and start the server
//
// All actual logic lives in the internal packages.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/wikishelf/internal/config"
	"github.com/sakif/wikishelf/internal/server"
)

func main() {
	// A missing .env is fine, production sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
