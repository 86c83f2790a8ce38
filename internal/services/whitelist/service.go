package whitelist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Service manages the registry of identities and hardware serials
// permitted to request verification. Entries never expire on their
// own; adding and removing them is an admin action.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new whitelist Service
func New(storage storage.Storage, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clk,
		logger:  logger,
	}
}

// Add validates and inserts a whitelist key. Format validation happens
// before any store access; a key already present fails with
// model.ErrDuplicateKey and leaves the existing entry untouched.
func (s *Service) Add(ctx context.Context, rawKey, addedBy string) (*model.WhitelistEntry, error) {
	key, kind, err := model.ParseWhitelistKey(rawKey)
	if err != nil {
		return nil, err
	}

	entry := &model.WhitelistEntry{
		Key:     key,
		Kind:    kind,
		AddedBy: addedBy,
		AddedAt: s.clock.Now(),
	}

	if err := s.storage.AddWhitelistEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes a whitelist key, reporting
// model.ErrWhitelistEntryNotFound when no row was affected.
func (s *Service) Remove(ctx context.Context, rawKey string) error {
	key, _, err := model.ParseWhitelistKey(rawKey)
	if err != nil {
		return err
	}
	return s.storage.RemoveWhitelistEntry(ctx, key)
}

// IsWhitelisted reports membership for a key. Malformed keys are
// simply not whitelisted rather than an error, since callers pass
// user-influenced values here.
func (s *Service) IsWhitelisted(ctx context.Context, rawKey string) (bool, error) {
	key, _, err := model.ParseWhitelistKey(rawKey)
	if err != nil {
		return false, nil
	}

	_, err = s.storage.GetWhitelistEntry(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrWhitelistEntryNotFound) {
		return false, nil
	}
	return false, err
}

// List returns all whitelist entries ordered by when they were added
func (s *Service) List(ctx context.Context) ([]*model.WhitelistEntry, error) {
	return s.storage.ListWhitelistEntries(ctx)
}
