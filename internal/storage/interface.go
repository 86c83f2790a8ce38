package storage

import (
	"context"
	"time"

	"github.com/mkarls/gatekeeper/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Game account operations (the accounts table belongs to the game
	// server; the portal only reads and inserts)
	GetAccountByUsername(ctx context.Context, username string) (*model.GameAccount, error)
	GetAccountByID(ctx context.Context, id model.AccountID) (*model.GameAccount, error)
	CreateAccount(ctx context.Context, account *model.GameAccount) (model.AccountID, error)
	TouchAccountLastLogin(ctx context.Context, id model.AccountID, at time.Time) error

	// Identity operations
	UpsertIdentity(ctx context.Context, identity *model.Identity) error
	GetIdentity(ctx context.Context, id model.DiscordID) (*model.Identity, error)

	// Account link operations. UpsertPrimaryLink is atomic: it fails
	// with model.ErrAccountLinkedElsewhere when the account already has
	// a primary link held by a different identity, with no partial
	// write. Re-linking the same pair refreshes LinkedAt.
	UpsertPrimaryLink(ctx context.Context, link *model.AccountLink) error
	GetPrimaryLink(ctx context.Context, id model.DiscordID) (*model.AccountLink, error)
	GetPrimaryLinkByAccount(ctx context.Context, id model.AccountID) (*model.AccountLink, error)
	DeleteLinks(ctx context.Context, id model.DiscordID) error

	// Whitelist operations
	AddWhitelistEntry(ctx context.Context, entry *model.WhitelistEntry) error
	RemoveWhitelistEntry(ctx context.Context, key string) error
	GetWhitelistEntry(ctx context.Context, key string) (*model.WhitelistEntry, error)
	ListWhitelistEntries(ctx context.Context) ([]*model.WhitelistEntry, error)

	// Verification session operations (one row per identity, upsert).
	// GetVerificationSession returns model.ErrNoSession when the
	// identity has never verified.
	UpsertVerificationSession(ctx context.Context, session *model.VerificationSession) error
	GetVerificationSession(ctx context.Context, id model.DiscordID) (*model.VerificationSession, error)

	// Audit log operations (append-only)
	AppendAuditEntry(ctx context.Context, entry *model.AuditEntry) error
	ListAuditEntries(ctx context.Context, limit int) ([]*model.AuditEntry, error)

	// Whitelist application operations
	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplication(ctx context.Context, id string) (*model.Application, error)
	GetOpenApplicationByIdentity(ctx context.Context, id model.DiscordID) (*model.Application, error)
	ListApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) ([]*model.Application, error)
	UpdateApplication(ctx context.Context, app *model.Application) error

	// Admin user operations
	GetAdminByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	SaveAdmin(ctx context.Context, admin *model.AdminUser) error
}
