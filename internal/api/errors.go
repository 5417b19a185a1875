package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/arguspanoptes/argus-server/internal/errors"
)

// APIError implements huma.StatusError and maps domain errors onto the
// wire shape every error response shares.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"type" doc:"Machine-readable error type"`
	Message string `json:"error" doc:"Human-readable error message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler replaces huma's error constructor with one that
// understands domain errors. In production, 5xx messages are scrubbed so
// internal details never reach callers; validation and rate-limit
// messages stay verbatim since they describe the caller's own input.
func RegisterErrorHandler(production bool) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				msg := domainErr.Message
				s := domainErr.HTTPStatus()
				if production && s >= http.StatusInternalServerError {
					msg = "internal server error"
				}
				return &APIError{
					status:  s,
					Code:    domainErr.Code.String(),
					Message: msg,
				}
			}
		}

		if production && status >= http.StatusInternalServerError {
			message = "internal server error"
		}
		return &APIError{
			status:  status,
			Code:    codeForStatus(status),
			Message: message,
		}
	}
}

// codeForStatus picks a wire code for errors huma raises itself, like
// schema validation failures and 404s.
func codeForStatus(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusTooManyRequests:
		return domainerrors.CodeRateLimit.String()
	case status >= http.StatusInternalServerError:
		return domainerrors.CodeInternal.String()
	default:
		return domainerrors.CodeValidation.String()
	}
}
