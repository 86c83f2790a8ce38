package handler

import (
	"net/http"

	"github.com/mkarls/gatekeeper/internal/api/middleware"
	"github.com/mkarls/gatekeeper/internal/api/response"
	"github.com/mkarls/gatekeeper/internal/services/verification"
)

// StatusHandler exposes verification session state to signed-in users
type StatusHandler struct {
	verificationService *verification.Service
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(verificationService *verification.Service) *StatusHandler {
	return &StatusHandler{
		verificationService: verificationService,
	}
}

// Get handles GET /api/verification/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	status, err := h.verificationService.Status(r.Context(), identity.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VerificationStatusFromModel(status))
}
