package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultServerURL    = "http://localhost:5000"
	DefaultPollInterval = 1000 * time.Millisecond
	DefaultHideDelay    = 500 * time.Millisecond
	DefaultPort         = 5000
)

// validLogLevels mirrors the level names logrus accepts.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:       DefaultServerURL,
		PollInterval:    DefaultPollInterval,
		HideDelay:       DefaultHideDelay,
		LogLevel:        "warn",
		Port:            DefaultPort,
		DataDir:         "data",
		AllowAllOrigins: false,
		MaxUploadMB:     32,
	}
}

func joinData(dir, name string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
