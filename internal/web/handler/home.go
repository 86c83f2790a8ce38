package handler

import (
	"errors"
	"net/http"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
	"github.com/mkarls/gatekeeper/internal/web/view"
)

// HomeHandler renders the portal home page
type HomeHandler struct {
	linkService         *link.Service
	whitelistService    *whitelist.Service
	verificationService *verification.Service
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(
	linkService *link.Service,
	whitelistService *whitelist.Service,
	verificationService *verification.Service,
) *HomeHandler {
	return &HomeHandler{
		linkService:         linkService,
		whitelistService:    whitelistService,
		verificationService: verificationService,
	}
}

// Home renders the home page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	session := middleware.GetSession(r.Context())

	data := view.HomeData{
		PageData: view.PageData{
			Title:    "Home",
			Identity: identity,
			Flash:    middleware.GetFlash(r.Context()),
		},
	}
	if session != nil && session.IsAdmin() {
		// Admins land on the whitelist page instead
		http.Redirect(w, r, "/admin/whitelist", http.StatusSeeOther)
		return
	}

	if identity != nil {
		account, err := h.linkService.LinkedAccount(r.Context(), identity.ID)
		if err != nil && !errors.Is(err, model.ErrAccountNotLinked) {
			RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
			return
		}
		data.LinkedAccount = account

		whitelisted, err := h.whitelistService.IsWhitelisted(r.Context(), string(identity.ID))
		if err != nil {
			RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
			return
		}
		data.Whitelisted = whitelisted

		status, err := h.verificationService.Status(r.Context(), identity.ID)
		if err != nil {
			RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
			return
		}
		data.Verification = status
	}

	_ = view.Render(w, http.StatusOK, "home.html", data)
}
