package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarls/gatekeeper/internal/api/handler"
	"github.com/mkarls/gatekeeper/internal/api/middleware"
	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/services/auth"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	AuthService         *auth.Service
	VerificationService *verification.Service
	WhitelistService    *whitelist.Service
	ApplicationService  *application.Service
	LinkService         *link.Service
	Storage             storage.Storage
	LoginLimiter        ratelimit.Limiter
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.LoginLimiter)
	statusHandler := handler.NewStatusHandler(cfg.VerificationService)
	adminHandler := handler.NewAdminHandler(
		cfg.WhitelistService,
		cfg.ApplicationService,
		cfg.VerificationService,
		cfg.LinkService,
		cfg.Storage,
	)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	adminAuthMiddleware := middleware.AdminAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Admin token issuance for API clients
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Verification status (requires a signed-in Discord identity)
	verificationRoutes := api.PathPrefix("/verification").Subrouter()
	verificationRoutes.Use(authMiddleware)
	verificationRoutes.HandleFunc("/status", statusHandler.Get).Methods(http.MethodGet)

	// Admin routes (require an admin session)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminAuthMiddleware)
	admin.HandleFunc("/whitelist", adminHandler.ListWhitelist).Methods(http.MethodGet)
	admin.HandleFunc("/whitelist", adminHandler.AddWhitelist).Methods(http.MethodPost)
	admin.HandleFunc("/whitelist/{key}", adminHandler.RemoveWhitelist).Methods(http.MethodDelete)
	admin.HandleFunc("/applications", adminHandler.ListApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id}/review", adminHandler.ReviewApplication).Methods(http.MethodPost)
	admin.HandleFunc("/status/{discord_id}", adminHandler.UserStatus).Methods(http.MethodGet)
	admin.HandleFunc("/audit", adminHandler.ListAudit).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
