package handler

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/auth"
	"github.com/mkarls/gatekeeper/internal/services/discord"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
	"github.com/mkarls/gatekeeper/internal/web/view"
)

const stateCookieName = "oauth_state"

// AuthHandler handles Discord sign-in, admin login and logout
type AuthHandler struct {
	authService   *auth.Service
	discordClient *discord.Client
	limiter       ratelimit.Limiter
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *auth.Service, discordClient *discord.Client, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		discordClient: discordClient,
		limiter:       limiter,
	}
}

// DiscordStart handles GET /auth/discord
// Redirects to Discord's consent page with an anti-forgery state token
func (h *AuthHandler) DiscordStart(w http.ResponseWriter, r *http.Request) {
	state := generateState()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.discordClient.AuthCodeURL(state), http.StatusSeeOther)
}

// DiscordCallback handles GET /auth/discord/callback
func (h *AuthHandler) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		middleware.SetFlash(w, "error", "Sign-in failed, please try again")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// State is single-use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.SetFlash(w, "error", "Discord sign-in was cancelled")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	identity, err := h.discordClient.CompleteLogin(r.Context(), code)
	if err != nil {
		middleware.SetFlash(w, "error", "Sign-in failed, please try again")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	session, err := h.authService.SignIn(r.Context(), identity)
	if err != nil {
		middleware.SetFlash(w, "error", "Sign-in failed, please try again")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	setSessionCookie(w, session.Token)
	middleware.SetFlash(w, "success", "Signed in as "+identity.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session"); err == nil {
		h.authService.InvalidateSession(cookie.Value)
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// AdminLoginPage renders the admin login form
func (h *AuthHandler) AdminLoginPage(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session != nil && session.IsAdmin() {
		http.Redirect(w, r, "/admin/whitelist", http.StatusSeeOther)
		return
	}

	_ = view.Render(w, http.StatusOK, "admin_login.html", view.AdminLoginData{
		PageData: view.PageData{
			Title: "Admin login",
			Flash: middleware.GetFlash(r.Context()),
		},
	})
}

// AdminLogin handles the admin login form submission
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAdminLoginError(w, "", "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.renderAdminLoginError(w, username, "Username and password are required")
		return
	}

	result, err := h.limiter.Check(r.Context(), "admin-login:"+username)
	if err == nil && !result.Allowed {
		h.renderAdminLoginError(w, username, "Too many attempts, try again later")
		return
	}

	session, err := h.authService.AdminLogin(r.Context(), username, password)
	if err != nil {
		h.renderAdminLoginError(w, username, "Invalid username or password")
		return
	}

	_ = h.limiter.Reset(r.Context(), "admin-login:"+username)
	setSessionCookie(w, session.Token)
	http.Redirect(w, r, "/admin/whitelist", http.StatusSeeOther)
}

func (h *AuthHandler) renderAdminLoginError(w http.ResponseWriter, username, message string) {
	_ = view.Render(w, http.StatusUnauthorized, "admin_login.html", view.AdminLoginData{
		PageData: view.PageData{Title: "Admin login"},
		Username: username,
		Error:    message,
	})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
