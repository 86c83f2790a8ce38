package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
	"github.com/mkarls/gatekeeper/internal/web/view"
)

// ApplyHandler handles whitelist applications
type ApplyHandler struct {
	applicationService *application.Service
}

// NewApplyHandler creates a new ApplyHandler
func NewApplyHandler(applicationService *application.Service) *ApplyHandler {
	return &ApplyHandler{
		applicationService: applicationService,
	}
}

// ApplyPage renders the application form, or the open application's
// state if one is pending
func (h *ApplyHandler) ApplyPage(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	open, err := h.applicationService.Open(r.Context(), identity.ID)
	if err != nil && !errors.Is(err, model.ErrApplicationNotFound) {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	_ = view.Render(w, http.StatusOK, "apply.html", view.ApplyData{
		PageData: view.PageData{
			Title:    "Apply",
			Identity: identity,
			Flash:    middleware.GetFlash(r.Context()),
		},
		Open:        open,
		FieldErrors: make(map[string]string),
	})
}

// Apply handles the application form submission
func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	serial := strings.TrimSpace(r.FormValue("serial"))
	message := r.FormValue("message")

	_, err := h.applicationService.Apply(r.Context(), identity.ID, serial, message)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidKeyFormat):
			h.renderApplyError(w, identity, serial, message, "Serial must be 32 hex characters")
		case errors.Is(err, model.ErrApplicationPending):
			middleware.SetFlash(w, "info", "You already have a pending application")
			http.Redirect(w, r, "/apply", http.StatusSeeOther)
		default:
			RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		}
		return
	}

	middleware.SetFlash(w, "success", "Application submitted")
	http.Redirect(w, r, "/apply", http.StatusSeeOther)
}

func (h *ApplyHandler) renderApplyError(w http.ResponseWriter, identity *model.Identity, serial, message, serialError string) {
	_ = view.Render(w, http.StatusOK, "apply.html", view.ApplyData{
		PageData: view.PageData{
			Title:    "Apply",
			Identity: identity,
		},
		Serial:  serial,
		Message: message,
		FieldErrors: map[string]string{
			"serial": serialError,
		},
	})
}
