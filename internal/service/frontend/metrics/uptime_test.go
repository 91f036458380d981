package metrics

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestStartUptime(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		m.StartUptime(ctx)

		// Wait for at least 2 seconds to ensure multiple updates
		time.Sleep(2 * time.Second)
		synctest.Wait()

		currentUptime := m.Uptime()
		if currentUptime < 1 || currentUptime > 3 {
			t.Errorf("unexpected uptime value: got %d, want between 1 and 3", currentUptime)
		}

		// After cancellation, the uptime should remain relatively unchanged
		cancel()
		synctest.Wait()
		previousUptime := m.Uptime()
		time.Sleep(2 * time.Second)
		synctest.Wait()

		assert.Equal(t, previousUptime, m.Uptime())
	})
}

func TestStartUptime_Once(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		m.StartUptime(ctx)
		time.Sleep(3500 * time.Millisecond)
		synctest.Wait()

		// A second start must not reset the clock.
		m.StartUptime(ctx)
		synctest.Wait()

		assert.Equal(t, int64(3), m.Uptime())
		cancel()
	})
}

func TestUptime_NotStarted(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	assert.Zero(t, m.Uptime())
}
