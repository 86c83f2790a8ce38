package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/account"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Service manages the link between Discord identities and legacy game
// accounts. A game account can hold a primary link to at most one
// identity; the conflict check lives in the storage upsert so two
// racing link attempts cannot both win.
type Service struct {
	storage  storage.Storage
	accounts *account.Service
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new link Service
func New(storage storage.Storage, accounts *account.Service, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		accounts: accounts,
		clock:    clk,
		logger:   logger,
	}
}

// Link proves ownership of a game account and makes it the identity's
// primary link. Verification failures surface as-is; a game account
// already claimed by a different identity fails with
// model.ErrAccountLinkedElsewhere. Re-linking the same pair succeeds
// and refreshes the link timestamp.
func (s *Service) Link(ctx context.Context, discordID model.DiscordID, gameUsername, plaintext string) (*model.AccountLink, error) {
	acct, err := s.accounts.Verify(ctx, gameUsername, plaintext)
	if err != nil {
		return nil, err
	}

	lnk := &model.AccountLink{
		DiscordID: discordID,
		AccountID: acct.ID,
		Primary:   true,
		LinkedAt:  s.clock.Now(),
	}

	if err := s.storage.UpsertPrimaryLink(ctx, lnk); err != nil {
		return nil, err
	}

	s.audit(ctx, discordID, model.AuditLink)
	return lnk, nil
}

// Unlink removes all link rows for the identity. Unlinking an identity
// that holds no link is a successful no-op.
func (s *Service) Unlink(ctx context.Context, discordID model.DiscordID) error {
	if err := s.storage.DeleteLinks(ctx, discordID); err != nil {
		return fmt.Errorf("unlinking identity: %w", err)
	}

	s.audit(ctx, discordID, model.AuditUnlink)
	return nil
}

// LinkedAccount resolves the identity's primary link to its game
// account. Returns model.ErrAccountNotLinked when no primary link
// exists.
func (s *Service) LinkedAccount(ctx context.Context, discordID model.DiscordID) (*model.GameAccount, error) {
	lnk, err := s.storage.GetPrimaryLink(ctx, discordID)
	if err != nil {
		return nil, err
	}

	acct, err := s.storage.GetAccountByID(ctx, lnk.AccountID)
	if errors.Is(err, model.ErrAccountNotFound) {
		// Dangling link: the game server deleted the account out from
		// under us. Report not-linked so the user lands back in the
		// linking flow instead of seeing an internal error.
		return nil, model.ErrAccountNotLinked
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Service) audit(ctx context.Context, discordID model.DiscordID, kind model.AuditKind) {
	entry := &model.AuditEntry{
		ID:        uuid.NewString(),
		DiscordID: discordID,
		Kind:      kind,
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.AppendAuditEntry(ctx, entry); err != nil {
		s.logger.Warn("could not write audit entry",
			slog.String("discord_id", string(discordID)),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
}
