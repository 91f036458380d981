package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
)

// responseObserver watches a response through an httpsnoop wrapper and
// calls onFinish at most once with the status code that was sent.
type responseObserver struct {
	writer   http.ResponseWriter
	status   int
	aborted  bool
	once     sync.Once
	onFinish func(status int)
}

func observe(w http.ResponseWriter, onFinish func(status int)) *responseObserver {
	o := &responseObserver{onFinish: onFinish}
	o.writer = httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				o.recordStatus(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				o.recordStatus(http.StatusOK)
				n, err := next(b)
				if err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
					o.aborted = true
				}
				return n, err
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				o.recordStatus(http.StatusOK)
				n, err := next(src)
				if err != nil {
					o.aborted = true
				}
				return n, err
			}
		},
		Hijack: func(next httpsnoop.HijackFunc) httpsnoop.HijackFunc {
			return func() (net.Conn, *bufio.ReadWriter, error) {
				conn, rw, err := next()
				if err == nil {
					o.aborted = true
				}
				return conn, rw, err
			}
		},
	})
	return o
}

// recordStatus keeps the first final status. Informational 1xx headers may
// precede it.
func (o *responseObserver) recordStatus(code int) {
	if o.status == 0 && code >= http.StatusOK {
		o.status = code
	}
}

// finish marks the response as complete. net/http sends 200 when the
// handler wrote nothing.
func (o *responseObserver) finish() {
	if o.aborted {
		return
	}
	o.once.Do(func() {
		status := o.status
		if status == 0 {
			status = http.StatusOK
		}
		o.onFinish(status)
	})
}
