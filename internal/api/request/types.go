package request

import (
	"net/http"
	"strings"
)

// BearerToken extracts the bearer token from the Authorization header,
// or returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// LoginRequest is the request body for an admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddWhitelistRequest is the request body for adding a whitelist entry
type AddWhitelistRequest struct {
	Key string `json:"key"`
}

// ReviewApplicationRequest is the request body for reviewing an application
type ReviewApplicationRequest struct {
	Action string `json:"action"` // "approve" or "reject"
}
