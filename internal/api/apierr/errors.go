package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountNotActivated = "ACCOUNT_NOT_ACTIVATED"
	CodeAccountNotLinked    = "ACCOUNT_NOT_LINKED"
	CodeLinkedElsewhere     = "LINKED_ELSEWHERE"
	CodeNotWhitelisted      = "NOT_WHITELISTED"
	CodeInvalidKeyFormat    = "INVALID_KEY_FORMAT"
	CodeDuplicateKey        = "DUPLICATE_KEY"
	CodeEntryNotFound       = "WHITELIST_ENTRY_NOT_FOUND"
	CodeApplicationNotFound = "APPLICATION_NOT_FOUND"
	CodeApplicationPending  = "APPLICATION_PENDING"
	CodeApplicationClosed   = "APPLICATION_CLOSED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrBadCredentials):
		// Unknown username and wrong password are indistinguishable to
		// the caller
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, model.ErrAccountNotActivated):
		return &httpError{http.StatusForbidden, APIError{CodeAccountNotActivated, "Account is not activated"}}
	case errors.Is(err, model.ErrAccountNotLinked):
		return &httpError{http.StatusConflict, APIError{CodeAccountNotLinked, "No game account is linked to this Discord user"}}
	case errors.Is(err, model.ErrAccountLinkedElsewhere):
		return &httpError{http.StatusConflict, APIError{CodeLinkedElsewhere, "This game account is already linked to another Discord user"}}
	case errors.Is(err, model.ErrNotWhitelisted):
		return &httpError{http.StatusForbidden, APIError{CodeNotWhitelisted, "Not on the whitelist"}}
	case errors.Is(err, model.ErrInvalidKeyFormat):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidKeyFormat, "Key must be a 32-char hex serial or a Discord id"}}
	case errors.Is(err, model.ErrDuplicateKey):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateKey, "Key is already whitelisted"}}
	case errors.Is(err, model.ErrWhitelistEntryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeEntryNotFound, "Whitelist entry not found"}}
	case errors.Is(err, model.ErrApplicationNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeApplicationNotFound, "Application not found"}}
	case errors.Is(err, model.ErrApplicationPending):
		return &httpError{http.StatusConflict, APIError{CodeApplicationPending, "An application is already pending"}}
	case errors.Is(err, model.ErrApplicationClosed):
		return &httpError{http.StatusConflict, APIError{CodeApplicationClosed, "Application has already been reviewed"}}
	case errors.Is(err, model.ErrRateLimited):
		return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many attempts, try again later"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
