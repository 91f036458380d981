package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/skribblers/backend/internal/cmn/logger"
	"github.com/skribblers/backend/internal/cmn/logger/tag"
)

// GreetingMessage is the payload served at the root path.
const GreetingMessage = "Hello skribblers"

type greeting struct {
	Message string `json:"message"`
}

// Greeting answers with a static JSON greeting.
func Greeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, greeting{Message: GreetingMessage})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error(r.Context(), "Failed to encode response", tag.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
