package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"inferd/internal/dispatch"
	"inferd/internal/pool"
	"inferd/internal/provider"
	"inferd/internal/registry"
	"inferd/pkg/types"
)

// HTTPError lets an error carry its own HTTP status code.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps dispatcher errors onto HTTP status codes. Errors the
// dispatcher does not classify fall back to HTTPError, then to 500.
func statusForError(err error) int {
	switch {
	case registry.IsUnknownModel(err):
		return http.StatusNotFound
	case registry.IsNotReady(err), registry.IsInvalidTransition(err):
		return http.StatusConflict
	case pool.IsTooBusy(err):
		return http.StatusTooManyRequests
	case pool.IsClosed(err), provider.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case dispatch.IsOperationFailure(err):
		return http.StatusInternalServerError
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeError classifies err and writes the JSON error payload.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
