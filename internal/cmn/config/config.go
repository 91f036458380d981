package config

import (
	"errors"
	"fmt"
)

// Build and naming information. Version is set by main at startup.
var (
	Version = "dev"
	AppName = "Skribble"
	// AppSlug names the binary, the config directory and the env prefix.
	AppSlug = "skribble"
)

// Config holds the overall configuration for the application.
type Config struct {
	Core     Core
	Server   Server
	Metrics  Metrics
	Warnings []string
}

// Core holds process-wide settings.
type Core struct {
	// Debug enables debug level logging with source locations.
	Debug bool
	// LogFormat is "text" or "json".
	LogFormat string
	// LogFile, when set, receives a copy of every log line.
	LogFile string
}

// Server holds the HTTP server settings.
type Server struct {
	Host string
	Port int
	// BodyLimit is the maximum accepted JSON request body in bytes.
	BodyLimit int64
	// AccessLog enables structured per-request logging in addition to the
	// plain request lines.
	AccessLog bool
	CORS      CORS
}

// CORS configures cross-origin access. It is disabled when AllowedOrigins is empty.
type CORS struct {
	AllowedOrigins []string
}

// Enabled reports whether a CORS handler should be installed.
func (c CORS) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}

// Metrics configures the prometheus endpoint.
type Metrics struct {
	Enabled bool
	Path    string
}

var (
	ErrInvalidPort      = errors.New("invalid port")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidBodyLimit = errors.New("invalid body limit")
)

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	switch c.Core.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q (expected text or json)", ErrInvalidLogFormat, c.Core.LogFormat)
	}
	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBodyLimit, c.Server.BodyLimit)
	}
	return nil
}
