package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarls/gatekeeper/internal/api/middleware"
	"github.com/mkarls/gatekeeper/internal/api/request"
	"github.com/mkarls/gatekeeper/internal/api/response"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// AdminHandler handles admin API endpoints
type AdminHandler struct {
	whitelistService    *whitelist.Service
	applicationService  *application.Service
	verificationService *verification.Service
	linkService         *link.Service
	storage             storage.Storage
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	whitelistService *whitelist.Service,
	applicationService *application.Service,
	verificationService *verification.Service,
	linkService *link.Service,
	store storage.Storage,
) *AdminHandler {
	return &AdminHandler{
		whitelistService:    whitelistService,
		applicationService:  applicationService,
		verificationService: verificationService,
		linkService:         linkService,
		storage:             store,
	}
}

// ListWhitelist handles GET /api/admin/whitelist
func (h *AdminHandler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.whitelistService.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.WhitelistEntriesFromModel(entries))
}

// AddWhitelist handles POST /api/admin/whitelist
func (h *AdminHandler) AddWhitelist(w http.ResponseWriter, r *http.Request) {
	var req request.AddWhitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Key == "" {
		WriteError(w, NewInvalidRequestError("key is required"))
		return
	}

	session := middleware.GetSession(r.Context())
	entry, err := h.whitelistService.Add(r.Context(), req.Key, session.AdminName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.WhitelistEntryFromModel(entry))
}

// RemoveWhitelist handles DELETE /api/admin/whitelist/{key}
func (h *AdminHandler) RemoveWhitelist(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	if err := h.whitelistService.Remove(r.Context(), key); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ListApplications handles GET /api/admin/applications
func (h *AdminHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applicationService.ListPending(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ApplicationsFromModel(apps))
}

// ReviewApplication handles POST /api/admin/applications/{id}/review
func (h *AdminHandler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req request.ReviewApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	session := middleware.GetSession(r.Context())

	var app *model.Application
	var err error
	switch req.Action {
	case "approve":
		app, err = h.applicationService.Approve(r.Context(), id, session.AdminName)
	case "reject":
		app, err = h.applicationService.Reject(r.Context(), id, session.AdminName)
	default:
		WriteError(w, NewInvalidRequestError("action must be 'approve' or 'reject'"))
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ApplicationFromModel(app))
}

// UserStatus handles GET /api/admin/status/{discord_id}
// Returns the verification status and linked account for an identity,
// for admin support lookups.
func (h *AdminHandler) UserStatus(w http.ResponseWriter, r *http.Request) {
	discordID := model.DiscordID(mux.Vars(r)["discord_id"])

	status, err := h.verificationService.Status(r.Context(), discordID)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := response.UserStatus{
		Verification: response.VerificationStatusFromModel(status),
	}

	if account, err := h.linkService.LinkedAccount(r.Context(), discordID); err == nil {
		link, lerr := h.storage.GetPrimaryLink(r.Context(), discordID)
		if lerr != nil {
			WriteError(w, lerr)
			return
		}
		out.LinkedAccount = &response.LinkedAccount{
			AccountID: int64(account.ID),
			Username:  account.Username,
			LinkedAt:  link.LinkedAt,
		}
	} else if !errors.Is(err, model.ErrAccountNotLinked) {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, out)
}

// ListAudit handles GET /api/admin/audit
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.storage.ListAuditEntries(r.Context(), 100)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AuditEntriesFromModel(entries))
}
