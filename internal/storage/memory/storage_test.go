package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkarls/gatekeeper/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) createAccount(username string) model.AccountID {
	id, err := s.storage.CreateAccount(s.ctx, &model.GameAccount{
		Username:     username,
		PasswordHash: "f4578310605d0663397d2ef9071c7a71",
		Salt:         "1234567890",
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return id
}

// Game account tests

func (s *StorageSuite) TestCreateAndGetAccount() {
	id := s.createAccount("player1")

	account, err := s.storage.GetAccountByUsername(s.ctx, "player1")
	s.Require().NoError(err)
	s.Equal(id, account.ID)
	s.Equal("player1", account.Username)
	s.Equal("1234567890", account.Salt)
	s.Nil(account.Activated)
}

func (s *StorageSuite) TestGetAccountByID() {
	id := s.createAccount("player1")

	account, err := s.storage.GetAccountByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("player1", account.Username)

	_, err = s.storage.GetAccountByID(s.ctx, id+100)
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccountByUsername(s.ctx, "ghost_user")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestCreateAccountDuplicateUsername() {
	s.createAccount("player1")

	_, err := s.storage.CreateAccount(s.ctx, &model.GameAccount{Username: "player1"})
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *StorageSuite) TestUsernameIsCaseSensitive() {
	s.createAccount("Player1")

	_, err := s.storage.GetAccountByUsername(s.ctx, "player1")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestTouchAccountLastLogin() {
	id := s.createAccount("player1")
	at := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)

	err := s.storage.TouchAccountLastLogin(s.ctx, id, at)
	s.Require().NoError(err)

	account, _ := s.storage.GetAccountByUsername(s.ctx, "player1")
	s.Require().NotNil(account.LastLoginAt)
	s.Equal(at, *account.LastLoginAt)
}

// Identity tests

func (s *StorageSuite) TestUpsertIdentityPreservesFirstSeen() {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	_ = s.storage.UpsertIdentity(s.ctx, &model.Identity{
		ID: "708475369614999572", Username: "alice", FirstSeenAt: first, LastSeenAt: first,
	})
	_ = s.storage.UpsertIdentity(s.ctx, &model.Identity{
		ID: "708475369614999572", Username: "alice_renamed", FirstSeenAt: later, LastSeenAt: later,
	})

	identity, err := s.storage.GetIdentity(s.ctx, "708475369614999572")
	s.Require().NoError(err)
	s.Equal("alice_renamed", identity.Username)
	s.Equal(first, identity.FirstSeenAt)
	s.Equal(later, identity.LastSeenAt)
}

func (s *StorageSuite) TestGetIdentityNotFound() {
	_, err := s.storage.GetIdentity(s.ctx, "99999999999999999")
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

// Account link tests

func (s *StorageSuite) TestUpsertAndGetPrimaryLink() {
	id := s.createAccount("player1")

	err := s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{
		DiscordID: "708475369614999572",
		AccountID: id,
		LinkedAt:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	link, err := s.storage.GetPrimaryLink(s.ctx, "708475369614999572")
	s.Require().NoError(err)
	s.Equal(id, link.AccountID)
	s.True(link.Primary)

	byAccount, err := s.storage.GetPrimaryLinkByAccount(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.DiscordID("708475369614999572"), byAccount.DiscordID)
}

func (s *StorageSuite) TestUpsertPrimaryLinkConflict() {
	id := s.createAccount("player1")

	err := s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{DiscordID: "708475369614999572", AccountID: id})
	s.Require().NoError(err)

	err = s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{DiscordID: "111111111111111111", AccountID: id})
	s.ErrorIs(err, model.ErrAccountLinkedElsewhere)

	// Loser must not have mutated anything
	link, err := s.storage.GetPrimaryLinkByAccount(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.DiscordID("708475369614999572"), link.DiscordID)
}

func (s *StorageSuite) TestUpsertPrimaryLinkRelinkSameIdentity() {
	id := s.createAccount("player1")
	first := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	_ = s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{DiscordID: "708475369614999572", AccountID: id, LinkedAt: first})
	err := s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{DiscordID: "708475369614999572", AccountID: id, LinkedAt: second})
	s.Require().NoError(err)

	link, _ := s.storage.GetPrimaryLink(s.ctx, "708475369614999572")
	s.Equal(second, link.LinkedAt)
}

func (s *StorageSuite) TestDeleteLinksIsIdempotent() {
	id := s.createAccount("player1")
	_ = s.storage.UpsertPrimaryLink(s.ctx, &model.AccountLink{DiscordID: "708475369614999572", AccountID: id})

	s.NoError(s.storage.DeleteLinks(s.ctx, "708475369614999572"))
	_, err := s.storage.GetPrimaryLink(s.ctx, "708475369614999572")
	s.ErrorIs(err, model.ErrAccountNotLinked)

	// Second delete with nothing to remove still succeeds
	s.NoError(s.storage.DeleteLinks(s.ctx, "708475369614999572"))
}

// Whitelist tests

func (s *StorageSuite) TestAddWhitelistEntryDuplicate() {
	entry := &model.WhitelistEntry{Key: "708475369614999572", Kind: model.WhitelistKeyDiscord, AddedBy: "admin"}
	s.Require().NoError(s.storage.AddWhitelistEntry(s.ctx, entry))

	err := s.storage.AddWhitelistEntry(s.ctx, &model.WhitelistEntry{Key: "708475369614999572", AddedBy: "other"})
	s.ErrorIs(err, model.ErrDuplicateKey)

	// Original entry untouched
	got, _ := s.storage.GetWhitelistEntry(s.ctx, "708475369614999572")
	s.Equal("admin", got.AddedBy)
}

func (s *StorageSuite) TestRemoveWhitelistEntryNotFound() {
	err := s.storage.RemoveWhitelistEntry(s.ctx, "708475369614999572")
	s.ErrorIs(err, model.ErrWhitelistEntryNotFound)
}

func (s *StorageSuite) TestListWhitelistEntriesOrderedByAddedAt() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.AddWhitelistEntry(s.ctx, &model.WhitelistEntry{Key: "222222222222222222", AddedAt: base.Add(time.Hour)})
	_ = s.storage.AddWhitelistEntry(s.ctx, &model.WhitelistEntry{Key: "111111111111111111", AddedAt: base})

	entries, err := s.storage.ListWhitelistEntries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("111111111111111111", entries[0].Key)
	s.Equal("222222222222222222", entries[1].Key)
}

// Verification session tests

func (s *StorageSuite) TestVerificationSessionUpsertReplaces() {
	first := &model.VerificationSession{
		DiscordID:  "708475369614999572",
		VerifiedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt:  time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC),
	}
	_ = s.storage.UpsertVerificationSession(s.ctx, first)

	second := &model.VerificationSession{
		DiscordID:  "708475369614999572",
		VerifiedAt: first.VerifiedAt.Add(10 * time.Minute),
		ExpiresAt:  first.ExpiresAt.Add(10 * time.Minute),
	}
	_ = s.storage.UpsertVerificationSession(s.ctx, second)

	got, err := s.storage.GetVerificationSession(s.ctx, "708475369614999572")
	s.Require().NoError(err)
	s.Equal(second.ExpiresAt, got.ExpiresAt)
}

func (s *StorageSuite) TestGetVerificationSessionAbsent() {
	_, err := s.storage.GetVerificationSession(s.ctx, "708475369614999572")
	s.ErrorIs(err, model.ErrNoSession)
}

// Audit log tests

func (s *StorageSuite) TestAuditLogNewestFirst() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = s.storage.AppendAuditEntry(s.ctx, &model.AuditEntry{
			ID:        string(rune('a' + i)),
			DiscordID: "708475369614999572",
			Kind:      model.AuditVerify,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	entries, err := s.storage.ListAuditEntries(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("c", entries[0].ID)
	s.Equal("b", entries[1].ID)
}

// Application tests

func (s *StorageSuite) TestOpenApplicationLookup() {
	app := &model.Application{
		ID:        "app-1",
		DiscordID: "708475369614999572",
		Serial:    "00112233445566778899AABBCCDDEEFF",
		Status:    model.ApplicationPending,
	}
	_ = s.storage.CreateApplication(s.ctx, app)

	got, err := s.storage.GetOpenApplicationByIdentity(s.ctx, "708475369614999572")
	s.Require().NoError(err)
	s.Equal("app-1", got.ID)

	now := time.Now()
	app.Status = model.ApplicationApproved
	app.ReviewedBy = "admin"
	app.ReviewedAt = &now
	s.Require().NoError(s.storage.UpdateApplication(s.ctx, app))

	_, err = s.storage.GetOpenApplicationByIdentity(s.ctx, "708475369614999572")
	s.ErrorIs(err, model.ErrApplicationNotFound)
}

// Admin tests

func (s *StorageSuite) TestSaveAndGetAdmin() {
	admin := &model.AdminUser{Username: "root", PasswordHash: "$2a$10$hash", CreatedAt: time.Now()}
	s.Require().NoError(s.storage.SaveAdmin(s.ctx, admin))

	got, err := s.storage.GetAdminByUsername(s.ctx, "root")
	s.Require().NoError(err)
	s.Equal("$2a$10$hash", got.PasswordHash)

	_, err = s.storage.GetAdminByUsername(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrAdminNotFound)
}
