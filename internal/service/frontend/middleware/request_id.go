package middleware

import (
	"context"
	"net/http"
	"regexp"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/skribblers/backend/internal/cmn/logger"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLen is the longest inbound id that is accepted as is.
const maxRequestIDLen = 128

var regexRequestID = regexp.MustCompile(`^[-a-zA-Z0-9_.]+$`)

// RequestID tags every request with an id. A well-formed X-Request-Id header
// is kept, anything else is replaced by a new UUIDv7. The id is written back
// to the request header, echoed in the response, stored where chi's GetReqID
// finds it and attached to the request's logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = newRequestID()
		}

		r.Header.Set(RequestIDHeader, id)
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		ctx = logger.WithValues(ctx, "request-id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDLen && regexRequestID.MatchString(id)
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
