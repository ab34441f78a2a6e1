// Package main is the entry point for the passwordless login API server.
//
// main stays minimal: read configuration from the environment, build the
// logger and the mailer, hand everything to internal/server. All actual
// logic lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/passcode-login/internal/mailer"
	"github.com/sakif/passcode-login/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	// DB_PATH overrides the default for deployments,
	// e.g. DB_PATH=/var/lib/passcode-login/prod.db
	dbPath := "data/users.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// JWT_SECRET must be a long random string. Use:
	//   JWT_SECRET=$(openssl rand -hex 32)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET not set — refusing to start without a signing key")
		os.Exit(1)
	}

	// Mailer selection: a configured SMTP relay sends real mail; otherwise
	// codes are written to the log, which is what you want in development.
	smtpCfg := mailer.Config{
		Host: os.Getenv("SMTP_HOST"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: os.Getenv("SMTP_FROM"),
	}
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid SMTP_PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		smtpCfg.Port = p
	}

	var mail mailer.Mailer
	if smtpCfg.Configured() {
		m, err := mailer.NewSMTPMailer(smtpCfg, logger)
		if err != nil {
			logger.Error("failed to create SMTP mailer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		mail = m
	} else {
		logger.Warn("SMTP not configured — login codes will be logged, not emailed")
		mail = mailer.NewLogMailer(logger)
	}

	cfg := server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		BaseURL:   os.Getenv("BASE_URL"),
	}

	srv, err := server.New(cfg, logger, mail)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
