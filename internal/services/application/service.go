package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/whitelist"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Service handles whitelist applications: players submit a hardware
// serial and a short pitch, admins approve or reject. Approval feeds
// the whitelist registry.
type Service struct {
	storage   storage.Storage
	whitelist *whitelist.Service
	clock     clock.Clock
	logger    *slog.Logger
}

// New creates a new application Service
func New(storage storage.Storage, wl *whitelist.Service, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		whitelist: wl,
		clock:     clk,
		logger:    logger,
	}
}

// Apply submits a whitelist application. One pending application per
// identity; the serial must be a well-formed 32-char hex token.
func (s *Service) Apply(ctx context.Context, discordID model.DiscordID, rawSerial, message string) (*model.Application, error) {
	serial, kind, err := model.ParseWhitelistKey(rawSerial)
	if err != nil || kind != model.WhitelistKeySerial {
		return nil, model.ErrInvalidKeyFormat
	}

	_, err = s.storage.GetOpenApplicationByIdentity(ctx, discordID)
	if err == nil {
		return nil, model.ErrApplicationPending
	}
	if !errors.Is(err, model.ErrApplicationNotFound) {
		return nil, fmt.Errorf("checking open applications: %w", err)
	}

	app := &model.Application{
		ID:        uuid.NewString(),
		DiscordID: discordID,
		Serial:    serial,
		Message:   strings.TrimSpace(message),
		Status:    model.ApplicationPending,
		CreatedAt: s.clock.Now(),
	}

	if err := s.storage.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("creating application: %w", err)
	}
	return app, nil
}

// Open returns the identity's pending application, if any
func (s *Service) Open(ctx context.Context, discordID model.DiscordID) (*model.Application, error) {
	return s.storage.GetOpenApplicationByIdentity(ctx, discordID)
}

// ListPending returns applications awaiting review, oldest first
func (s *Service) ListPending(ctx context.Context) ([]*model.Application, error) {
	return s.storage.ListApplicationsByStatus(ctx, model.ApplicationPending)
}

// Approve marks an application approved and whitelists both the
// applicant's serial and their Discord id. Already-whitelisted keys
// are tolerated so re-approving after a partial failure converges.
func (s *Service) Approve(ctx context.Context, id, reviewedBy string) (*model.Application, error) {
	app, err := s.review(ctx, id, reviewedBy, model.ApplicationApproved)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{app.Serial, string(app.DiscordID)} {
		if _, err := s.whitelist.Add(ctx, key, reviewedBy); err != nil && !errors.Is(err, model.ErrDuplicateKey) {
			return nil, fmt.Errorf("whitelisting %s: %w", key, err)
		}
	}
	return app, nil
}

// Reject marks an application rejected without touching the whitelist
func (s *Service) Reject(ctx context.Context, id, reviewedBy string) (*model.Application, error) {
	return s.review(ctx, id, reviewedBy, model.ApplicationRejected)
}

func (s *Service) review(ctx context.Context, id, reviewedBy string, status model.ApplicationStatus) (*model.Application, error) {
	app, err := s.storage.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationPending {
		return nil, model.ErrApplicationClosed
	}

	now := s.clock.Now()
	app.Status = status
	app.ReviewedBy = reviewedBy
	app.ReviewedAt = &now

	if err := s.storage.UpdateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("updating application: %w", err)
	}
	return app, nil
}
