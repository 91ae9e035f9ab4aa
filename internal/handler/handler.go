// Package handler contains HTTP request handlers for the rail ticketing API.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/trackeasy/railtick/internal/service"
	"github.com/trackeasy/railtick/internal/upstream"
)

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes the common error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// respondServiceError maps the errors shared across the pipeline to HTTP
// responses. Endpoint-specific errors are handled in the endpoint's own
// switch before falling back here.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	var statusErr *upstream.StatusError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, upstream.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "The requested resource does not exist.")
	case errors.Is(err, upstream.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "upstream_timeout", "The ticketing operator did not respond in time. Please retry.")
	case errors.Is(err, upstream.ErrInvalidResponseShape):
		writeError(w, http.StatusBadGateway, "upstream_malformed", "The ticketing operator returned an unreadable response.")
	case errors.As(err, &statusErr):
		log.Printf("[handler] upstream status %d", statusErr.Code)
		writeError(w, http.StatusBadGateway, "upstream_error", "The ticketing operator rejected the request.")
	default:
		log.Printf("[handler] unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Something went wrong.")
	}
}

// decodeBody decodes a JSON request body, rejecting unparsable payloads
// with a 400 before any handler logic runs.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
		return false
	}
	return true
}
