package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tokenforge/mintbridge/internal/core"
)

// errorResponse is the JSON shape for all error responses.
type errorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a plain error message as JSON.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps an engine error to a user-facing JSON response with an
// appropriate HTTP status derived from the error kind.
func respondError(w http.ResponseWriter, err error) {
	um := core.MapError(err)
	writeJSON(w, statusForKind(core.KindOf(err)), errorResponse{
		Error:  um.Message,
		Action: um.Action,
		Code:   um.Code,
	})
}

// statusForKind maps error kinds to HTTP status codes.
func statusForKind(k core.Kind) int {
	switch k {
	case core.KindInvalidInput:
		return http.StatusBadRequest
	case core.KindAlreadyImported:
		return http.StatusConflict
	case core.KindParentNotFound:
		return http.StatusUnprocessableEntity
	case core.KindDestinationRejected:
		return http.StatusBadGateway
	case core.KindAuthorization:
		return http.StatusForbidden
	case core.KindLookup:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
