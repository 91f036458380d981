package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// uptimeTracker counts whole seconds since StartUptime was called.
type uptimeTracker struct {
	once    sync.Once
	seconds atomic.Int64
}

// StartUptime starts the uptime counter. It stops updating once ctx is
// done. Subsequent calls are no-ops.
func (m *Metrics) StartUptime(ctx context.Context) {
	m.uptime.once.Do(func() {
		startTime := time.Now()
		go func() {
			for {
				m.uptime.seconds.Store(int64(time.Since(startTime) / time.Second))

				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}()
	})
}

// Uptime returns the current uptime in seconds.
func (m *Metrics) Uptime() int64 {
	return m.uptime.seconds.Load()
}
