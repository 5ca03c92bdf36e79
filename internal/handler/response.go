package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rentpoint/backend/internal/domain"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response: {"error": "<message>"}.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the named chi URL parameter as an int64 id.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// respondServiceError maps a service-layer error onto an HTTP status.
// Conflict-class errors (no unit free, transition refused) carry the specific
// message so the caller can see the current status; unexpected errors are
// logged and surfaced as a bare 500.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		jsonError(w, http.StatusNotFound, errMessage(err))
	case errors.Is(err, domain.ErrNoAvailableItem),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInactiveSession):
		jsonError(w, http.StatusConflict, errMessage(err))
	case errors.Is(err, domain.ErrValidation):
		jsonError(w, http.StatusUnprocessableEntity, errMessage(err))
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal server error")
	}
}

// errMessage strips the call-site prefixes ("service.SessionService.Start:
// repo.SessionRepo.SetActive:") from a wrapped error, leaving the part a
// client should see.
func errMessage(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		prefix := msg[:i]
		if !strings.HasPrefix(prefix, "service.") && !strings.HasPrefix(prefix, "repo.") {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}
