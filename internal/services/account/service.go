package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/dependencies/random"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/credential"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Service verifies and registers legacy game accounts
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new account Service
func New(storage storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clk,
		random:  rnd,
		logger:  logger,
	}
}

// Verify checks a username/password pair against the legacy accounts
// store. Lookup is by exact username. Read-only apart from a
// best-effort last-login touch on success.
func (s *Service) Verify(ctx context.Context, username, plaintext string) (*model.GameAccount, error) {
	acct, err := s.storage.GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !acct.IsActivated() {
		return nil, model.ErrAccountNotActivated
	}

	if !credential.Matches(plaintext, acct.Salt, acct.PasswordHash) {
		return nil, model.ErrBadCredentials
	}

	if err := s.storage.TouchAccountLastLogin(ctx, acct.ID, s.clock.Now()); err != nil {
		// Last-login is advisory; never fail a valid verification on it
		s.logger.Warn("could not update last login",
			slog.String("username", username),
			slog.String("error", err.Error()))
	}

	return acct, nil
}

// Register creates a new legacy game account with a fresh salt.
// The account is activated immediately; the game server treats an
// absent flag as active anyway.
func (s *Service) Register(ctx context.Context, username, plaintext string) (*model.GameAccount, error) {
	salt := credential.GenerateSalt(s.random)

	acct := &model.GameAccount{
		Username:     username,
		PasswordHash: credential.Hash(plaintext, salt),
		Salt:         salt,
		CreatedAt:    s.clock.Now(),
	}

	id, err := s.storage.CreateAccount(ctx, acct)
	if err != nil {
		if errors.Is(err, model.ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("creating game account: %w", err)
	}

	acct.ID = id
	return acct, nil
}
