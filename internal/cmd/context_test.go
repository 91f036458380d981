package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skribblers/backend/internal/cmn/config"
	"github.com/skribblers/backend/internal/cmn/logger"
)

var envKeys = []string{
	"PORT", "HOST",
	"SKRIBBLE_PORT", "SKRIBBLE_HOST", "SKRIBBLE_DEBUG", "SKRIBBLE_LOG_FORMAT",
	"SKRIBBLE_LOG_FILE", "SKRIBBLE_BODY_LIMIT", "SKRIBBLE_ACCESS_LOG",
	"SKRIBBLE_CORS_ALLOWED_ORIGINS", "SKRIBBLE_METRICS_ENABLED", "SKRIBBLE_METRICS_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

// writeConfig writes content to a config file in a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestContext(t *testing.T, args ...string) (*Context, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "server"}
	initFlags(cmd, serverFlags...)
	require.NoError(t, cmd.ParseFlags(args))
	ctx, err := NewContext(cmd, serverFlags)
	if ctx != nil {
		t.Cleanup(func() { _ = ctx.Close() })
	}
	return ctx, err
}

func TestNewContext_Port(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
		args []string
		want int
	}{
		{name: "Default", want: 8080},
		{name: "Env", env: map[string]string{"PORT": "4000"}, want: 4000},
		{name: "ZeroEnv", env: map[string]string{"PORT": "0"}, want: 8080},
		{name: "Flag", args: []string{"--port", "3000"}, want: 3000},
		{name: "FlagOverEnv", env: map[string]string{"PORT": "4000"}, args: []string{"-p", "3000"}, want: 3000},
		{name: "File", file: "port: 5000\n", want: 5000},
		{name: "EnvOverFile", file: "port: 5000\n", env: map[string]string{"PORT": "4000"}, want: 4000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			args := append([]string{"--quiet", "--config", writeConfig(t, tt.file)}, tt.args...)
			ctx, err := newTestContext(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ctx.Config.Server.Port)
			assert.True(t, ctx.Quiet)
		})
	}
}

func TestNewContext_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "abc")

	_, err := newTestContext(t, "--quiet", "--config", writeConfig(t, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidPort)
}

func TestNewContext_HostFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOST", "0.0.0.0")

	ctx, err := newTestContext(t, "-q", "--config", writeConfig(t, ""), "--host", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ctx.Config.Server.Host)
}

func TestNewContext_LogFile(t *testing.T) {
	clearEnv(t)
	logPath := filepath.Join(t.TempDir(), "skribble.log")
	cfgPath := writeConfig(t, fmt.Sprintf("logFile: %q\naccessLog: true\ndebug: true\n", logPath))

	ctx, err := newTestContext(t, "--quiet", "--config", cfgPath)
	require.NoError(t, err)

	logger.Info(ctx, "hello from the logger")
	w := httptest.NewRecorder()
	ctx.NewServer().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, ctx.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the logger")
	assert.Contains(t, string(data), "Received: [GET] /\n")
	assert.Contains(t, string(data), "version="+config.Version)
	assert.Contains(t, string(data), "format=text")
}

func TestNewContext_MissingConfigFile(t *testing.T) {
	clearEnv(t)

	_, err := newTestContext(t, "--quiet", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

type syncLines struct {
	mu    sync.Mutex
	lines []string
}

func (s *syncLines) sink(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, msg)
}

func (s *syncLines) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func findPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestRunServer(t *testing.T) {
	clearEnv(t)
	port := findPort(t)
	t.Setenv("PORT", fmt.Sprint(port))

	ctx, err := newTestContext(t, "--quiet", "--config", writeConfig(t, ""), "--host", "127.0.0.1")
	require.NoError(t, err)

	lines := &syncLines{}
	ctx.Sink = lines.sink
	runCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()
	ctx.Context = runCtx

	done := make(chan error, 1)
	go func() {
		done <- runServer(ctx, nil)
	}()

	started := fmt.Sprintf("Server started on: http://localhost:%d", port)
	require.Eventually(t, func() bool {
		got := lines.snapshot()
		return len(got) > 0 && got[0] == started
	}, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, `{"message":"Hello skribblers"}`, string(body))

	got := lines.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "Received: [GET] /", got[1])
	assert.Regexp(t, `^\[.+Z\] GET / 200 - \d+ms$`, got[2])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	cmd := Version()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	assert.Equal(t, config.Version+"\n", buf.String())
}
