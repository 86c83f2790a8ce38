package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mkarls/gatekeeper/internal/api/request"
	"github.com/mkarls/gatekeeper/internal/api/response"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/auth"
)

// AuthHandler handles admin token issuance for API clients
type AuthHandler struct {
	authService *auth.Service
	limiter     ratelimit.Limiter
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		limiter:     limiter,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid JSON body"))
		return
	}

	if req.Username == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("username and password are required"))
		return
	}

	// Same fixed window as the admin login form, so switching to the
	// API does not buy an attacker extra guesses
	limitKey := "admin-login:" + req.Username
	result, err := h.limiter.Check(r.Context(), limitKey)
	if err == nil && !result.Allowed {
		WriteError(w, model.ErrRateLimited)
		return
	}

	session, err := h.authService.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	_ = h.limiter.Reset(r.Context(), limitKey)
	response.JSON(w, http.StatusOK, response.LoginResponse{
		Token:     session.Token,
		AdminName: session.AdminName,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := request.BearerToken(r)
	if token != "" {
		h.authService.InvalidateSession(token)
	}
	response.NoContent(w)
}
