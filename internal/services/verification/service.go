package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/link"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Service issues and reports on time-boxed verification windows.
// Expiry is computed from the clock at read time; there is no sweeper
// and no revoked state distinct from natural expiry.
type Service struct {
	storage   storage.Storage
	whitelist *whitelist.Service
	links     *link.Service
	clock     clock.Clock
	logger    *slog.Logger

	window time.Duration
}

// Config holds configuration for the verification service
type Config struct {
	// Window is how long an issued session stays active
	Window time.Duration
}

// DefaultConfig returns default verification configuration
func DefaultConfig() Config {
	return Config{
		Window: 5 * time.Minute,
	}
}

// New creates a new verification Service
func New(storage storage.Storage, wl *whitelist.Service, links *link.Service, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.Window == 0 {
		cfg.Window = DefaultConfig().Window
	}
	return &Service{
		storage:   storage,
		whitelist: wl,
		links:     links,
		clock:     clk,
		logger:    logger,
		window:    cfg.Window,
	}
}

// Issue opens (or replaces) the identity's verification window.
// Preconditions: the identity must be whitelisted and must hold a
// linked game account. The link requirement is re-checked here even
// though callers gate on it too; a stale page must not mint a window
// for an unlinked identity. Concurrent issues for one identity
// converge by last-write-wins upsert.
func (s *Service) Issue(ctx context.Context, discordID model.DiscordID, sourceAddr, clientInfo string) (*model.VerificationSession, error) {
	whitelisted, err := s.whitelist.IsWhitelisted(ctx, string(discordID))
	if err != nil {
		return nil, err
	}
	if !whitelisted {
		return nil, model.ErrNotWhitelisted
	}

	if _, err := s.links.LinkedAccount(ctx, discordID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &model.VerificationSession{
		DiscordID:  discordID,
		VerifiedAt: now,
		ExpiresAt:  now.Add(s.window),
		SourceAddr: sourceAddr,
		ClientInfo: clientInfo,
	}

	if err := s.storage.UpsertVerificationSession(ctx, session); err != nil {
		return nil, err
	}

	// Audit is best effort: a full audit table must not block players
	// from joining the server
	audit := &model.AuditEntry{
		ID:         uuid.NewString(),
		DiscordID:  discordID,
		Kind:       model.AuditVerify,
		SourceAddr: sourceAddr,
		ClientInfo: clientInfo,
		CreatedAt:  now,
	}
	if err := s.storage.AppendAuditEntry(ctx, audit); err != nil {
		s.logger.Warn("could not write audit entry",
			slog.String("discord_id", string(discordID)),
			slog.String("kind", string(model.AuditVerify)),
			slog.String("error", err.Error()))
	}

	return session, nil
}

// Status reports the identity's current verification state. An absent
// row is NoSession; a present row is Active until the clock passes its
// expiry, then Expired.
func (s *Service) Status(ctx context.Context, discordID model.DiscordID) (*model.VerificationStatus, error) {
	session, err := s.storage.GetVerificationSession(ctx, discordID)
	if errors.Is(err, model.ErrNoSession) {
		return &model.VerificationStatus{State: model.VerificationNone}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	status := &model.VerificationStatus{ExpiresAt: &session.ExpiresAt}
	if now.Before(session.ExpiresAt) {
		status.State = model.VerificationActive
		status.SecondsRemaining = int64(session.ExpiresAt.Sub(now) / time.Second)
	} else {
		status.State = model.VerificationExpired
	}
	return status, nil
}
