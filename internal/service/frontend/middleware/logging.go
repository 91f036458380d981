package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/skribblers/backend/internal/cmn/logger"
)

// timestampLayout renders completion times as ISO-8601 in UTC with
// millisecond precision, e.g. 2024-05-01T12:00:00.123Z.
const timestampLayout = "2006-01-02T15:04:05.000Z"

type loggingConfig struct {
	now func() time.Time
}

// LoggingOption configures RequestLogging.
type LoggingOption func(*loggingConfig)

// WithClock replaces time.Now as the source of request timestamps.
func WithClock(now func() time.Time) LoggingOption {
	return func(c *loggingConfig) {
		c.now = now
	}
}

// RequestLogging emits two lines per request through sink: a receipt line
// as soon as the request arrives and a completion line once the response
// has been written. A nil sink prints to standard output.
//
// The next handler is always called exactly once. Responses that are
// aborted (failed writes, hijacked connections, panics escaping the chain)
// produce no completion line.
func RequestLogging(sink logger.Sink, opts ...LoggingOption) func(http.Handler) http.Handler {
	if sink == nil {
		sink = logger.Stdout()
	}
	cfg := loggingConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method, url := r.Method, originalURL(r)
			sink(fmt.Sprintf("Received: [%s] %s", method, url))

			start := cfg.now()
			obs := observe(w, func(status int) {
				end := cfg.now()
				sink(fmt.Sprintf("[%s] %s %s %d - %dms",
					end.UTC().Format(timestampLayout),
					method, url, status,
					end.Sub(start).Milliseconds(),
				))
			})

			next.ServeHTTP(obs.writer, r)
			obs.finish()
		})
	}
}

// originalURL returns the request target as received on the wire, before
// any router or middleware rewrote r.URL.
func originalURL(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
