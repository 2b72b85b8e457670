package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/teranos/pharmadex/entity"
	"github.com/teranos/pharmadex/errors"
	"github.com/teranos/pharmadex/logger"
)

const maxBodyBytes = 1 << 20

// dataBody is the envelope for single-entity responses.
type dataBody struct {
	Data any `json:"data"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, map[string]string{"error": message})
}

// fail maps err to a status and a safe message. Server-side failures are
// logged with full detail; client errors at debug level.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.FromContext(r.Context(), s.logger)
	fields := []any{
		logger.FieldMethod, r.Method,
		logger.FieldPath, r.URL.Path,
		logger.FieldStatus, status,
		logger.FieldErrorCategory, errors.CategoryOf(err),
		logger.FieldError, err,
	}
	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", fields...)
	} else {
		log.Debugw("Request rejected", fields...)
	}
	writeError(w, status, publicMessage(err))
}

// readJSON decodes the request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Validation("invalid request body: %v", err)
	}
	return nil
}

// listBody is the list envelope: the page under key plus total, 1-based
// page number and page count.
func listBody[T any](key string, p entity.Page[T]) map[string]any {
	return map[string]any{
		key:     p.Data,
		"total": p.Total,
		"page":  p.Number(),
		"pages": p.Pages(),
	}
}
