package logger

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := WriterSink(&buf)

	sink("first")
	sink("second")

	assert.Equal(t, "first\nsecond\n", buf.String())
}

func TestWriterSink_Concurrent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := WriterSink(&buf)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink("Received: [GET] /")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 100)
	for _, line := range lines {
		assert.Equal(t, "Received: [GET] /", line)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestWriterSink_IgnoresWriteErrors(t *testing.T) {
	t.Parallel()

	sink := WriterSink(failingWriter{})
	assert.NotPanics(t, func() { sink("lost") })
}

func TestSinkOf(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	sink := SinkOf(NewLogger(WithStdout(&stdout), WithStderr(&bytes.Buffer{})))

	sink("Server started on: http://localhost:8080")

	assert.Equal(t, "Server started on: http://localhost:8080\n", stdout.String())
}

func TestStdout(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = orig })

	Stdout()("Server started on: http://localhost:8080")
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Server started on: http://localhost:8080\n", string(out))
}
