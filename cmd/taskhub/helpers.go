package main

import (
	"fmt"
	"os"
	"strconv"

	taskhub "github.com/sarthakare/task-frontend-sub001"
	"go.uber.org/zap"
)

// getClient creates a backend client from the stored configuration.
func getClient() *taskhub.Client {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.Token == "" {
		fmt.Fprintln(os.Stderr, "No token. Run 'taskhub init <token>' first.")
		os.Exit(1)
	}
	if cfg.Default.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "No base URL. Run 'taskhub config set default.base_url <url>' first.")
		os.Exit(1)
	}

	return taskhub.NewClient(cfg.Auth.Token, taskhub.WithBaseURL(cfg.Default.BaseURL))
}

// getCredentials builds the session identity for the socket.
func getCredentials() taskhub.StaticCredentials {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Auth.UserID == 0 {
		fmt.Fprintln(os.Stderr, "No user id. Run 'taskhub config set auth.user_id <id>' first.")
		os.Exit(1)
	}
	return taskhub.StaticCredentials{AccessToken: cfg.Auth.Token, ID: cfg.Auth.UserID}
}

// getLogger builds a zap logger from the configured env and level.
func getLogger() *zap.Logger {
	cfg, err := loadConfig()
	if err != nil {
		return zap.NewNop()
	}
	level := cfg.Default.LogLevel
	if level == "" {
		level = "warn"
	}
	logger, err := taskhub.NewLogger(cfg.Default.Env, level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func parseUserID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("user_id must be a positive integer, got %q", value)
	}
	return id, nil
}
