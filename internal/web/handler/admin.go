package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
	"github.com/mkarls/gatekeeper/internal/web/view"
)

// AdminHandler handles the admin pages
type AdminHandler struct {
	whitelistService   *whitelist.Service
	applicationService *application.Service
	storage            storage.Storage
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(whitelistService *whitelist.Service, applicationService *application.Service, store storage.Storage) *AdminHandler {
	return &AdminHandler{
		whitelistService:   whitelistService,
		applicationService: applicationService,
		storage:            store,
	}
}

func (h *AdminHandler) pageData(r *http.Request, title string) view.PageData {
	session := middleware.GetSession(r.Context())
	return view.PageData{
		Title:     title,
		IsAdmin:   true,
		AdminName: session.AdminName,
		Flash:     middleware.GetFlash(r.Context()),
	}
}

// WhitelistPage renders the whitelist admin page
func (h *AdminHandler) WhitelistPage(w http.ResponseWriter, r *http.Request) {
	entries, err := h.whitelistService.List(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	_ = view.Render(w, http.StatusOK, "admin_whitelist.html", view.AdminWhitelistData{
		PageData: h.pageData(r, "Whitelist"),
		Entries:  entries,
	})
}

// AddWhitelist handles the whitelist add form
func (h *AdminHandler) AddWhitelist(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	key := strings.TrimSpace(r.FormValue("key"))
	session := middleware.GetSession(r.Context())

	_, err := h.whitelistService.Add(r.Context(), key, session.AdminName)
	switch {
	case err == nil:
		middleware.SetFlash(w, "success", "Entry added")
	default:
		middleware.SetFlash(w, "error", addErrorMessage(err))
	}

	http.Redirect(w, r, "/admin/whitelist", http.StatusSeeOther)
}

// RemoveWhitelist handles the whitelist remove form
func (h *AdminHandler) RemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		RenderError(w, http.StatusBadRequest, "Invalid form data.")
		return
	}

	if err := h.whitelistService.Remove(r.Context(), r.FormValue("key")); err != nil {
		middleware.SetFlash(w, "error", "Entry not found")
	} else {
		middleware.SetFlash(w, "success", "Entry removed")
	}

	http.Redirect(w, r, "/admin/whitelist", http.StatusSeeOther)
}

// ApplicationsPage renders the pending applications page
func (h *AdminHandler) ApplicationsPage(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListPending(r.Context())
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	_ = view.Render(w, http.StatusOK, "admin_applications.html", view.AdminApplicationsData{
		PageData:     h.pageData(r, "Applications"),
		Applications: apps,
	})
}

// ApproveApplication handles POST /admin/applications/{id}/approve
func (h *AdminHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// RejectApplication handles POST /admin/applications/{id}/reject
func (h *AdminHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *AdminHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	id := mux.Vars(r)["id"]
	session := middleware.GetSession(r.Context())

	var err error
	if approve {
		_, err = h.applicationService.Approve(r.Context(), id, session.AdminName)
	} else {
		_, err = h.applicationService.Reject(r.Context(), id, session.AdminName)
	}

	if err != nil {
		middleware.SetFlash(w, "error", "Could not review application")
	} else if approve {
		middleware.SetFlash(w, "success", "Application approved and keys whitelisted")
	} else {
		middleware.SetFlash(w, "success", "Application rejected")
	}

	http.Redirect(w, r, "/admin/applications", http.StatusSeeOther)
}

// AuditPage renders the audit log page
func (h *AdminHandler) AuditPage(w http.ResponseWriter, r *http.Request) {
	entries, err := h.storage.ListAuditEntries(r.Context(), 100)
	if err != nil {
		RenderError(w, http.StatusInternalServerError, "Something went wrong, please try again later.")
		return
	}

	_ = view.Render(w, http.StatusOK, "admin_audit.html", view.AdminAuditData{
		PageData: h.pageData(r, "Audit log"),
		Entries:  entries,
	})
}

func addErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidKeyFormat):
		return "Key must be a 32-char hex serial or a Discord id"
	case errors.Is(err, model.ErrDuplicateKey):
		return "Key is already whitelisted"
	default:
		return "Could not add entry"
	}
}
