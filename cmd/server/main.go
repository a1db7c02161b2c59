// Package main is the entry point for the catch log server.
//
// main stays small: read configuration, build the logger, hand both to
// internal/server and block until shutdown. Everything else lives in
// internal/ so it can be tested without a process.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/castiq/internal/config"
	"github.com/sakif/castiq/internal/logging"
	"github.com/sakif/castiq/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set: user_id is trusted as sent by the client")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
