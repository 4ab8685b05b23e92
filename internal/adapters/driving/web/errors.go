// Package web provides the HTTP shell: a gin server exposing the chat
// endpoint, the browser chat page, health and index reload.
package web

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ErrMissingQueryService is returned when the server is built without a query service.
var ErrMissingQueryService = errors.New("web: query service is required")

// statusFor maps a failure kind onto an HTTP status code.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindInvalidK, domain.KindTemplate:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindCorruptIndex, domain.KindDimensionMismatch, domain.KindEmptyCorpus:
		return http.StatusServiceUnavailable
	case domain.KindRateLimit:
		return http.StatusTooManyRequests
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindAuth, domain.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody returns the kind and the user-facing message of err.
// Errors that are not query errors never leak their text.
func errorBody(err error) (domain.ErrorKind, string) {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		return qe.Kind, qe.Message
	}
	return domain.KindOf(err), "Internal server error"
}
