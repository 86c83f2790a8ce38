package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mkarls/gatekeeper/internal/config"
	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/dependencies/random"
	"github.com/mkarls/gatekeeper/internal/ratelimit"
	"github.com/mkarls/gatekeeper/internal/services/account"
	"github.com/mkarls/gatekeeper/internal/services/application"
	"github.com/mkarls/gatekeeper/internal/services/auth"
	"github.com/mkarls/gatekeeper/internal/services/discord"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/verification"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
	"github.com/mkarls/gatekeeper/internal/storage/memory"
	mysqlstorage "github.com/mkarls/gatekeeper/internal/storage/mysql"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeMySQL  = "mysql"
)

// Rate limiter type constants
const (
	RateLimiterTypeMemory = "memory"
	RateLimiterTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AccountService      *account.Service
	LinkService         *link.Service
	WhitelistService    *whitelist.Service
	VerificationService *verification.Service
	ApplicationService  *application.Service
	AuthService         *auth.Service
	DiscordClient       *discord.Client
	LinkLimiter         ratelimit.Limiter
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "mysql")
	// If empty, defaults to "memory"
	StorageType string
	// MySQLConfig holds MySQL connection settings (required if StorageType is "mysql")
	MySQLConfig *mysqlstorage.Config
	// RateLimiterType selects the limiter backend ("memory" or "redis")
	// If empty, defaults to "memory"
	RateLimiterType string
	// RedisURL is the Redis connection URL (required if RateLimiterType is "redis")
	RedisURL string
	// DiscordConfig holds the Discord OAuth application credentials
	DiscordConfig discord.Config
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// VerificationConfig holds verification session settings (optional)
	VerificationConfig verification.Config
	// LinkLimitConfig holds the link attempt limit (optional)
	LinkLimitConfig ratelimit.Config
}

// FromEnvironment builds a factory Config from loaded portal configuration
func FromEnvironment(cfg *config.Config, logger *slog.Logger) Config {
	fc := Config{
		Logger:          logger,
		StorageType:     cfg.StorageType,
		RateLimiterType: cfg.RateLimiterType,
		RedisURL:        cfg.RedisURL,
		DiscordConfig: discord.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/discord/callback",
		},
		VerificationConfig: verification.Config{
			Window: cfg.VerificationWindow,
		},
	}

	if cfg.StorageType == StorageTypeMySQL {
		// Start from defaults so the pool settings survive; the
		// environment only carries connection coordinates.
		mc := mysqlstorage.DefaultConfig()
		mc.Host = cfg.MySQLHost
		mc.Port = cfg.MySQLPort
		mc.Database = cfg.MySQLDatabase
		mc.Username = cfg.MySQLUser
		mc.Password = cfg.MySQLPassword
		fc.MySQLConfig = &mc
	}

	return fc
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeMySQL:
		if cfg.MySQLConfig == nil {
			return nil, errors.New("MySQLConfig required when StorageType is mysql")
		}
		mysqlStore, err := mysqlstorage.New(*cfg.MySQLConfig)
		if err != nil {
			return nil, err
		}
		store = mysqlStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'mysql'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Create rate limiter based on type
	limitCfg := cfg.LinkLimitConfig
	if limitCfg.MaxAttempts == 0 {
		limitCfg = ratelimit.DefaultLinkConfig()
	}

	var limiter ratelimit.Limiter
	limiterType := cfg.RateLimiterType
	if limiterType == "" {
		limiterType = RateLimiterTypeMemory
	}

	switch limiterType {
	case RateLimiterTypeMemory:
		limiter = ratelimit.NewMemoryLimiter(limitCfg, clk)
	case RateLimiterTypeRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("RedisURL required when RateLimiterType is redis")
		}
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, limitCfg)
		if err != nil {
			return nil, err
		}
		limiter = redisLimiter
	default:
		return nil, errors.New("invalid RateLimiterType: must be 'memory' or 'redis'")
	}

	app := newWithDependencies(store, clk, rnd, cfg, logger)
	app.LinkLimiter = limiter
	app.DiscordClient = discord.New(cfg.DiscordConfig)
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	accountService := account.New(store, clk, rnd, logger)
	linkService := link.New(store, accountService, clk, logger)
	whitelistService := whitelist.New(store, clk, logger)
	verificationService := verification.New(store, whitelistService, linkService, clk, cfg.VerificationConfig, logger)
	applicationService := application.New(store, whitelistService, clk, logger)
	authService := auth.New(store, clk, cfg.AuthConfig)

	return &App{
		Storage:             store,
		Clock:               clk,
		Random:              rnd,
		AccountService:      accountService,
		LinkService:         linkService,
		WhitelistService:    whitelistService,
		VerificationService: verificationService,
		ApplicationService:  applicationService,
		AuthService:         authService,
	}
}
