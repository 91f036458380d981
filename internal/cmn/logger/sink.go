package logger

import (
	"io"
	"os"
	"sync"
)

// Sink consumes one formatted line. It has no return value; failures of the
// underlying output are not reported.
type Sink func(msg string)

// WriterSink returns a Sink that writes each message as a line to w.
// Lines written from concurrent callers are not interleaved.
func WriterSink(w io.Writer) Sink {
	var mu sync.Mutex
	return func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = io.WriteString(w, msg+"\n")
	}
}

// Stdout returns the default sink, which prints to the process's standard output.
func Stdout() Sink {
	return WriterSink(os.Stdout)
}

// SinkOf adapts the free-form Write method of l into a Sink.
func SinkOf(l Logger) Sink {
	return l.Write
}
