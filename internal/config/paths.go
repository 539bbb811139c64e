package config

import (
	"os"
	"path/filepath"
)

// SecretaryPath returns the root directory for secretary data.
// It uses $SECRETARY_PATH if set, otherwise defaults to ~/.secretary.
func SecretaryPath() string {
	if v := os.Getenv("SECRETARY_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".secretary")
	}
	return filepath.Join(home, ".secretary")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(SecretaryPath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(SecretaryPath(), ".env")
}

// SessionsPath returns the directory holding chat transcripts.
func SessionsPath() string {
	return filepath.Join(SecretaryPath(), "sessions")
}

// BoardDBPath returns the default SQLite board location.
func BoardDBPath() string {
	return filepath.Join(SecretaryPath(), "board.db")
}

// HeartbeatPath returns the liveness file written by `secretary serve`.
func HeartbeatPath() string {
	return filepath.Join(SecretaryPath(), "heartbeat.json")
}
