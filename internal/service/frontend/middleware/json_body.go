package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

type bodyKey struct{}

var errUnsupportedEncoding = errors.New("unsupported content encoding")

// JSONBody reads and validates application/json request bodies up to limit
// bytes. Only objects and arrays are accepted at the top level. Oversized
// bodies are rejected with 413 and malformed ones with 400; requests
// without a JSON body, or with an empty one, pass through untouched.
//
// gzip and deflate bodies are inflated first and the limit applies to the
// inflated size. Other content encodings are rejected with 415.
//
// The parsed document is available to handlers through BodyFromContext and
// r.Body is rewound so it can be read again.
func JSONBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) || !isJSON(r) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := decodeBody(r)
			if err != nil {
				if errors.Is(err, errUnsupportedEncoding) {
					writeStatus(w, http.StatusUnsupportedMediaType)
					return
				}
				writeStatus(w, http.StatusBadRequest)
				return
			}

			data, err := io.ReadAll(http.MaxBytesReader(w, body, limit))
			_ = body.Close()
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					writeStatus(w, http.StatusRequestEntityTooLarge)
					return
				}
				writeStatus(w, http.StatusBadRequest)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(data))
			r.ContentLength = int64(len(data))
			r.Header.Del("Content-Encoding")
			if len(data) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			if !isStrictJSON(data) {
				writeStatus(w, http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), bodyKey{}, json.RawMessage(data))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyFromContext returns the JSON document accepted by JSONBody.
func BodyFromContext(ctx context.Context) (json.RawMessage, bool) {
	body, ok := ctx.Value(bodyKey{}).(json.RawMessage)
	return body, ok
}

func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// decodeBody returns a reader over the request body with its content
// encoding removed.
func decodeBody(r *http.Request) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return r.Body, nil
	case "gzip":
		return gzip.NewReader(r.Body)
	case "deflate":
		return zlib.NewReader(r.Body)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedEncoding, enc)
	}
}

func isStrictJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return json.Valid(data)
}

func writeStatus(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}
