// Package tag provides standardized tag functions for structured logging.
//
// All tag keys use kebab-case naming convention for consistency.
package tag

import (
	"log/slog"
)

// Error creates a tag for error objects.
func Error(err any) slog.Attr {
	return slog.Any("err", err)
}

// Addr creates a tag for network listen addresses.
func Addr(addr string) slog.Attr {
	return slog.String("addr", addr)
}

// Port creates a tag for port numbers.
func Port(port int) slog.Attr {
	return slog.Int("port", port)
}

// Host creates a tag for host names.
func Host(host string) slog.Attr {
	return slog.String("host", host)
}

// Config creates a tag for configuration file paths.
func Config(path string) slog.Attr {
	return slog.String("config", path)
}

// Signal creates a tag for OS signal names.
func Signal(name string) slog.Attr {
	return slog.String("signal", name)
}

// Format creates a tag for log formats.
func Format(format string) slog.Attr {
	return slog.String("format", format)
}

// Origins creates a tag for CORS allowed origins.
func Origins(origins []string) slog.Attr {
	return slog.Any("origins", origins)
}
