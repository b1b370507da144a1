package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mandi-billing/internal/app"
	"mandi-billing/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeAppError maps service errors to HTTP statuses. Unrecognised errors are logged and
// reported as 500 without leaking their text.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case errors.Is(err, app.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrLotsAlreadyInvoiced):
		writeError(w, r, "lots were invoiced concurrently, retry the request", "CONFLICT", http.StatusConflict)
	default:
		log.Printf("[HTTP] %s %s request_id=%s: %v", r.Method, r.URL.Path, requestIDFromContext(r.Context()), err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
