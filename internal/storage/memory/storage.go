package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Conflict checks run under the lock, so the link-uniqueness invariant
// holds without a database constraint.
type Storage struct {
	mu sync.RWMutex

	accounts      map[model.AccountID]*model.GameAccount
	usernameIndex map[string]model.AccountID
	nextAccountID model.AccountID

	identities map[model.DiscordID]*model.Identity
	links      map[model.DiscordID]*model.AccountLink
	whitelist  map[string]*model.WhitelistEntry
	sessions   map[model.DiscordID]*model.VerificationSession

	auditLog []*model.AuditEntry

	applications map[string]*model.Application
	admins       map[string]*model.AdminUser
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:      make(map[model.AccountID]*model.GameAccount),
		usernameIndex: make(map[string]model.AccountID),
		nextAccountID: 1,
		identities:    make(map[model.DiscordID]*model.Identity),
		links:         make(map[model.DiscordID]*model.AccountLink),
		whitelist:     make(map[string]*model.WhitelistEntry),
		sessions:      make(map[model.DiscordID]*model.VerificationSession),
		applications:  make(map[string]*model.Application),
		admins:        make(map[string]*model.AdminUser),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game account operations

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.GameAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account := *s.accounts[id]
	return &account, nil
}

func (s *Storage) GetAccountByID(ctx context.Context, id model.AccountID) (*model.GameAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Storage) CreateAccount(ctx context.Context, account *model.GameAccount) (model.AccountID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usernameIndex[account.Username]; ok {
		return 0, model.ErrUsernameTaken
	}
	id := s.nextAccountID
	s.nextAccountID++

	stored := *account
	stored.ID = id
	s.accounts[id] = &stored
	s.usernameIndex[stored.Username] = id
	return id, nil
}

func (s *Storage) TouchAccountLastLogin(ctx context.Context, id model.AccountID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.LastLoginAt = &at
	return nil
}

// Identity operations

func (s *Storage) UpsertIdentity(ctx context.Context, identity *model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *identity
	if existing, ok := s.identities[identity.ID]; ok {
		stored.FirstSeenAt = existing.FirstSeenAt
	}
	s.identities[identity.ID] = &stored
	return nil
}

func (s *Storage) GetIdentity(ctx context.Context, id model.DiscordID) (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, model.ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

// Account link operations

func (s *Storage) UpsertPrimaryLink(ctx context.Context, link *model.AccountLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Conflict check and write happen under the same lock, which is the
	// memory-store equivalent of the mysql unique-key upsert.
	for _, existing := range s.links {
		if existing.AccountID == link.AccountID && existing.Primary && existing.DiscordID != link.DiscordID {
			return model.ErrAccountLinkedElsewhere
		}
	}

	stored := *link
	stored.Primary = true
	s.links[link.DiscordID] = &stored
	return nil
}

func (s *Storage) GetPrimaryLink(ctx context.Context, id model.DiscordID) (*model.AccountLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[id]
	if !ok || !link.Primary {
		return nil, model.ErrAccountNotLinked
	}
	copied := *link
	return &copied, nil
}

func (s *Storage) GetPrimaryLinkByAccount(ctx context.Context, id model.AccountID) (*model.AccountLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.links {
		if link.AccountID == id && link.Primary {
			copied := *link
			return &copied, nil
		}
	}
	return nil, model.ErrAccountNotLinked
}

func (s *Storage) DeleteLinks(ctx context.Context, id model.DiscordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, id)
	return nil
}

// Whitelist operations

func (s *Storage) AddWhitelistEntry(ctx context.Context, entry *model.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.whitelist[entry.Key]; ok {
		return model.ErrDuplicateKey
	}
	stored := *entry
	s.whitelist[entry.Key] = &stored
	return nil
}

func (s *Storage) RemoveWhitelistEntry(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.whitelist[key]; !ok {
		return model.ErrWhitelistEntryNotFound
	}
	delete(s.whitelist, key)
	return nil
}

func (s *Storage) GetWhitelistEntry(ctx context.Context, key string) (*model.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.whitelist[key]
	if !ok {
		return nil, model.ErrWhitelistEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *Storage) ListWhitelistEntries(ctx context.Context) ([]*model.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*model.WhitelistEntry, 0, len(s.whitelist))
	for _, entry := range s.whitelist {
		copied := *entry
		entries = append(entries, &copied)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

// Verification session operations

func (s *Storage) UpsertVerificationSession(ctx context.Context, session *model.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.DiscordID] = &stored
	return nil
}

func (s *Storage) GetVerificationSession(ctx context.Context, id model.DiscordID) (*model.VerificationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrNoSession
	}
	copied := *session
	return &copied, nil
}

// Audit log operations

func (s *Storage) AppendAuditEntry(ctx context.Context, entry *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	s.auditLog = append(s.auditLog, &stored)
	return nil
}

func (s *Storage) ListAuditEntries(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Newest first
	entries := make([]*model.AuditEntry, 0, limit)
	for i := len(s.auditLog) - 1; i >= 0 && len(entries) < limit; i-- {
		copied := *s.auditLog[i]
		entries = append(entries, &copied)
	}
	return entries, nil
}

// Whitelist application operations

func (s *Storage) CreateApplication(ctx context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *app
	s.applications[app.ID] = &stored
	return nil
}

func (s *Storage) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, model.ErrApplicationNotFound
	}
	copied := *app
	return &copied, nil
}

func (s *Storage) GetOpenApplicationByIdentity(ctx context.Context, id model.DiscordID) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.applications {
		if app.DiscordID == id && app.Status == model.ApplicationPending {
			copied := *app
			return &copied, nil
		}
	}
	return nil, model.ErrApplicationNotFound
}

func (s *Storage) ListApplicationsByStatus(ctx context.Context, status model.ApplicationStatus) ([]*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make([]*model.Application, 0)
	for _, app := range s.applications {
		if app.Status == status {
			copied := *app
			apps = append(apps, &copied)
		}
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].CreatedAt.Before(apps[j].CreatedAt)
	})
	return apps, nil
}

func (s *Storage) UpdateApplication(ctx context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[app.ID]; !ok {
		return model.ErrApplicationNotFound
	}
	stored := *app
	s.applications[app.ID] = &stored
	return nil
}

// Admin user operations

func (s *Storage) GetAdminByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin, ok := s.admins[username]
	if !ok {
		return nil, model.ErrAdminNotFound
	}
	copied := *admin
	return &copied, nil
}

func (s *Storage) SaveAdmin(ctx context.Context, admin *model.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *admin
	s.admins[admin.Username] = &stored
	return nil
}
