// internal/config/config.go
package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config holds the process configuration, read once at startup.
type Config struct {
	// Port the websocket listener binds to (0.0.0.0).
	Port string

	// LogLevel is a logrus level name (trace/debug/info/warn/error).
	LogLevel logrus.Level

	// OriginPatterns are passed to the websocket accept options.
	OriginPatterns []string
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything unset. godotenv autoload (imported in cmd/server) has already
// populated the environment from a .env file if one exists.
func FromEnv() Config {
	cfg := Config{
		Port:           "8765",
		LogLevel:       logrus.InfoLevel,
		OriginPatterns: []string{"*"},
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			cfg.LogLevel = parsed
		}
	}

	if patterns := os.Getenv("WS_ORIGIN_PATTERNS"); patterns != "" {
		parts := strings.Split(patterns, ",")
		cfg.OriginPatterns = cfg.OriginPatterns[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.OriginPatterns = append(cfg.OriginPatterns, p)
			}
		}
	}

	return cfg
}
