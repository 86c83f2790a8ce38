package factory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkarls/gatekeeper/internal/factory"
	"github.com/mkarls/gatekeeper/internal/model"
)

// IntegrationTestSuite exercises the full portal flow through wired
// services: register a legacy account, sign in with Discord, link,
// get whitelisted, verify, and watch the session expire.
type IntegrationTestSuite struct {
	suite.Suite
	app *factory.TestApp
	ctx context.Context
}

func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupTest() {
	s.app = factory.NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationTestSuite) TestFullPortalFlow() {
	const discordID = model.DiscordID("708475369614999572")

	// Legacy game account exists from the old registration system
	s.app.MockRandom.QueueString("1234567890")
	account, err := s.app.AccountService.Register(s.ctx, "alice", "correctpass")
	s.Require().NoError(err)

	// Discord sign-in
	session, err := s.app.AuthService.SignIn(s.ctx, &model.Identity{
		ID:       discordID,
		Username: "alice",
	})
	s.Require().NoError(err)
	s.NotEmpty(session.Token)

	// Verification refused before linking or whitelisting
	_, err = s.app.VerificationService.Issue(s.ctx, discordID, "203.0.113.7", "launcher/2.1")
	s.Require().ErrorIs(err, model.ErrNotWhitelisted)

	// Apply for whitelist access and get approved
	app, err := s.app.ApplicationService.Apply(s.ctx, discordID, "0123456789abcdef0123456789abcdef", "old player returning")
	s.Require().NoError(err)
	_, err = s.app.ApplicationService.Approve(s.ctx, app.ID, "admin")
	s.Require().NoError(err)

	// Still refused: whitelisted but not linked
	_, err = s.app.VerificationService.Issue(s.ctx, discordID, "203.0.113.7", "launcher/2.1")
	s.Require().ErrorIs(err, model.ErrAccountNotLinked)

	// Wrong password is rejected and counted by the limiter
	res, err := s.app.LinkLimiter.Check(s.ctx, string(discordID))
	s.Require().NoError(err)
	s.Require().True(res.Allowed)
	_, err = s.app.LinkService.Link(s.ctx, discordID, "alice", "wrongpass")
	s.Require().ErrorIs(err, model.ErrBadCredentials)

	// Correct password links the account
	linked, err := s.app.LinkService.Link(s.ctx, discordID, "alice", "correctpass")
	s.Require().NoError(err)
	s.Equal(account.ID, linked.AccountID)

	// Verification now succeeds with a five minute window
	issued, err := s.app.VerificationService.Issue(s.ctx, discordID, "203.0.113.7", "launcher/2.1")
	s.Require().NoError(err)
	s.Equal(s.app.MockClock.Now().Add(5*time.Minute), issued.ExpiresAt)

	status, err := s.app.VerificationService.Status(s.ctx, discordID)
	s.Require().NoError(err)
	s.Equal(model.VerificationActive, status.State)

	// The game server sees the session expire without any cleanup job
	s.app.MockClock.Advance(5*time.Minute + time.Second)
	status, err = s.app.VerificationService.Status(s.ctx, discordID)
	s.Require().NoError(err)
	s.Equal(model.VerificationExpired, status.State)

	// Audit trail recorded the link attempts and the verification
	entries, err := s.app.Storage.ListAuditEntries(s.ctx, 10)
	s.Require().NoError(err)
	s.NotEmpty(entries)
}

func (s *IntegrationTestSuite) TestLinkConflictAcrossIdentities() {
	const (
		aliceID = model.DiscordID("708475369614999572")
		bobID   = model.DiscordID("129837489172398471")
	)

	s.app.MockRandom.QueueString("1234567890")
	_, err := s.app.AccountService.Register(s.ctx, "shared", "hunter2")
	s.Require().NoError(err)

	_, err = s.app.LinkService.Link(s.ctx, aliceID, "shared", "hunter2")
	s.Require().NoError(err)

	// A second identity cannot claim the same account, even with the
	// right password
	_, err = s.app.LinkService.Link(s.ctx, bobID, "shared", "hunter2")
	s.Require().ErrorIs(err, model.ErrAccountLinkedElsewhere)

	// After alice unlinks, bob can claim it
	s.Require().NoError(s.app.LinkService.Unlink(s.ctx, aliceID))
	_, err = s.app.LinkService.Link(s.ctx, bobID, "shared", "hunter2")
	s.Require().NoError(err)
}
