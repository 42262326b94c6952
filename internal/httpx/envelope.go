// Package httpx writes the JSON response envelope shared by the HTTP adapters.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// WriteJSON writes an envelope with the given HTTP status. The envelope status
// is "success" for 200, 201 and 207 and "error" otherwise.
func WriteJSON(w http.ResponseWriter, code int, message string, data any) {
	status := StatusError
	switch code {
	case http.StatusOK, http.StatusCreated, http.StatusMultiStatus:
		status = StatusSuccess
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(Envelope{Status: status, Message: message, Data: data}); err != nil {
		slog.Warn("httpx: encode response", "error", err)
	}
}

// WriteError writes an error envelope with a null data field.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, message, nil)
}
