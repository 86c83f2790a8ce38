package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
	"github.com/mkarls/gatekeeper/internal/web/view"
)

// LinkHandler handles account linking and verification actions
type LinkHandler struct {
	linkService         *link.Service
	verificationService *verification.Service
	limiter             ratelimit.Limiter
}

// NewLinkHandler creates a new LinkHandler
func NewLinkHandler(linkService *link.Service, verificationService *verification.Service, limiter ratelimit.Limiter) *LinkHandler {
	return &LinkHandler{
		linkService:         linkService,
		verificationService: verificationService,
		limiter:             limiter,
	}
}

// LinkPage renders the account linking page
func (h *LinkHandler) LinkPage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	account, err := h.linkService.LinkedAccount(r.Context(), identity.ID)
	if err != nil && !errors.Is(err, model.ErrAccountNotLinked) {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	_ = view.Render(w, http.StatusOK, "link.html", view.LinkData{
		PageData: view.PageData{
			Title:    "Link account",
			Identity: identity,
			Flash:    middleware.GetFlash(r.Context()),
		},
		LinkedAccount: account,
	})
}

// Link handles the link form submission
func (h *LinkHandler) Link(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderLinkError(w, identity, "", "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.renderLinkError(w, identity, username, "Username and password are required")
		return
	}

	// Credential checks are rate limited per identity
	res, err := h.limiter.Check(r.Context(), "link:"+string(identity.ID))
	if err == nil && !res.Allowed {
		h.renderLinkError(w, identity, username, "Too many attempts, try again later")
		return
	}

	_, err = h.linkService.Link(r.Context(), identity.ID, username, password)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAccountNotFound), errors.Is(err, model.ErrBadCredentials):
			h.renderLinkError(w, identity, username, "Invalid username or password")
		case errors.Is(err, model.ErrAccountNotActivated):
			h.renderLinkError(w, identity, username, "This account has not been activated")
		case errors.Is(err, model.ErrAccountLinkedElsewhere):
			h.renderLinkError(w, identity, username, "This account is already linked to another Discord user")
		default:
			RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		}
		return
	}

	// Successful link clears the attempt counter
	_ = h.limiter.Reset(r.Context(), "link:"+string(identity.ID))

	middleware.SetFlash(w, "success", "Game account linked")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Unlink handles POST /link/remove
func (h *LinkHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := h.linkService.Unlink(r.Context(), identity.ID); err != nil {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	middleware.SetFlash(w, "success", "Game account unlinked")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Verify handles POST /verify
// Opens a verification window so the game server will accept the
// player's next login.
func (h *LinkHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	_, err := h.verificationService.Issue(r.Context(), identity.ID, clientAddr(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNotWhitelisted):
			middleware.SetFlash(w, "error", "You are not on the whitelist")
		case errors.Is(err, model.ErrAccountNotLinked):
			middleware.SetFlash(w, "error", "Link a game account before verifying")
		default:
			middleware.SetFlash(w, "error", "Something went wrong, please try again later")
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", "Verified - log in to the game within 5 minutes")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *LinkHandler) renderLinkError(w http.ResponseWriter, identity *model.Identity, username, message string) {
	_ = view.Render(w, http.StatusOK, "link.html", view.LinkData{
		PageData: view.PageData{
			Title:    "Link account",
			Identity: identity,
		},
		Username: username,
		Error:    message,
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
