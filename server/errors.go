package server

import (
	"net/http"

	"github.com/teranos/pharmadex/errors"
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, errors.ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, errors.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryConfiguration:
		return http.StatusServiceUnavailable
	case errors.CategoryNetwork, errors.CategoryExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is what a client may see for err. Messages of caller-facing
// categories are returned as written; everything else is generic and only
// logged in full.
func publicMessage(err error) string {
	var e *errors.Error
	switch errors.CategoryOf(err) {
	case errors.CategoryNotFound, errors.CategoryValidation:
		if errors.As(err, &e) {
			return e.Message
		}
		return "invalid request"
	case errors.CategoryConfiguration:
		return "service unavailable"
	case errors.CategoryNetwork, errors.CategoryExternalAPI:
		return "upstream provider unavailable"
	default:
		return "internal server error"
	}
}
