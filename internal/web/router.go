package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/services/auth"
	"github.com/mkarls/gatekeeper/internal/services/discord"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
	"github.com/mkarls/gatekeeper/internal/web/handler"
	"github.com/mkarls/gatekeeper/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger              *slog.Logger
	AuthService         *auth.Service
	DiscordClient       *discord.Client
	LinkService         *link.Service
	WhitelistService    *whitelist.Service
	VerificationService *verification.Service
	ApplicationService  *application.Service
	LinkLimiter         ratelimit.Limiter
	Storage             storage.Storage
	StaticDir           string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService)
	adminAuthMiddleware := middleware.AdminAuth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Create handlers
	homeHandler := handler.NewHomeHandler(cfg.LinkService, cfg.WhitelistService, cfg.VerificationService)
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.DiscordClient, cfg.LinkLimiter)
	linkHandler := handler.NewLinkHandler(cfg.LinkService, cfg.VerificationService, cfg.LinkLimiter)
	applyHandler := handler.NewApplyHandler(cfg.ApplicationService)
	adminHandler := handler.NewAdminHandler(cfg.WhitelistService, cfg.ApplicationService, cfg.Storage)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Public routes (optional auth for showing user info in nav)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)

	// Auth actions
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Use(flashMiddleware)
	authRoutes.Use(optionalAuthMiddleware)
	authRoutes.HandleFunc("/discord", authHandler.DiscordStart).Methods(http.MethodGet)
	authRoutes.HandleFunc("/discord/callback", authHandler.DiscordCallback).Methods(http.MethodGet)
	authRoutes.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Admin login (no auth required)
	adminLogin := r.PathPrefix("/admin/login").Subrouter()
	adminLogin.Use(flashMiddleware)
	adminLogin.Use(optionalAuthMiddleware)
	adminLogin.HandleFunc("", authHandler.AdminLoginPage).Methods(http.MethodGet)
	adminLogin.HandleFunc("", authHandler.AdminLogin).Methods(http.MethodPost)

	// Player routes (require a signed-in Discord identity)
	protected := r.NewRoute().Subrouter()
	protected.Use(flashMiddleware)
	protected.Use(authMiddleware)
	protected.HandleFunc("/link", linkHandler.LinkPage).Methods(http.MethodGet)
	protected.HandleFunc("/link", linkHandler.Link).Methods(http.MethodPost)
	protected.HandleFunc("/link/remove", linkHandler.Unlink).Methods(http.MethodPost)
	protected.HandleFunc("/verify", linkHandler.Verify).Methods(http.MethodPost)
	protected.HandleFunc("/apply", applyHandler.ApplyPage).Methods(http.MethodGet)
	protected.HandleFunc("/apply", applyHandler.Apply).Methods(http.MethodPost)

	// Admin routes (require an admin session)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(flashMiddleware)
	admin.Use(adminAuthMiddleware)
	admin.HandleFunc("/whitelist", adminHandler.WhitelistPage).Methods(http.MethodGet)
	admin.HandleFunc("/whitelist", adminHandler.AddWhitelist).Methods(http.MethodPost)
	admin.HandleFunc("/whitelist/remove", adminHandler.RemoveWhitelist).Methods(http.MethodPost)
	admin.HandleFunc("/applications", adminHandler.ApplicationsPage).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{id}/approve", adminHandler.ApproveApplication).Methods(http.MethodPost)
	admin.HandleFunc("/applications/{id}/reject", adminHandler.RejectApplication).Methods(http.MethodPost)
	admin.HandleFunc("/audit", adminHandler.AuditPage).Methods(http.MethodGet)

	return r
}
