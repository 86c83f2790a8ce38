package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkarls/gatekeeper/internal/dependencies/clock"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Session is an authenticated portal session. A session belongs either
// to a Discord identity (player sign-in) or to a local admin account.
type Session struct {
	Token     string
	DiscordID model.DiscordID
	Identity  *model.Identity
	AdminName string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the session belongs to an admin account
func (s *Session) IsAdmin() bool {
	return s.AdminName != ""
}

// Service handles portal sessions and admin authentication
type Service struct {
	storage storage.Storage
	clock   clock.Clock

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 7 * 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// SignIn records a Discord identity (creating or refreshing its row)
// and opens a portal session for it. Called after the OAuth callback.
func (s *Service) SignIn(ctx context.Context, identity *model.Identity) (*Session, error) {
	now := s.clock.Now()
	identity.LastSeenAt = now
	if identity.FirstSeenAt.IsZero() {
		identity.FirstSeenAt = now
	}
	if err := s.storage.UpsertIdentity(ctx, identity); err != nil {
		return nil, err
	}

	stored, err := s.storage.GetIdentity(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	return s.createSession(&Session{
		DiscordID: stored.ID,
		Identity:  stored,
	}), nil
}

// AdminLogin authenticates a local admin account and opens a session
func (s *Service) AdminLogin(ctx context.Context, username, password string) (*Session, error) {
	admin, err := s.storage.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(&Session{
		AdminName: admin.Username,
	}), nil
}

// CreateAdmin stores a new admin account with a bcrypt password hash
func (s *Service) CreateAdmin(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.storage.SaveAdmin(ctx, &model.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	})
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Identity returns the Discord identity for a session token
func (s *Service) Identity(token string) (*model.Identity, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	if session.Identity == nil {
		return nil, ErrInvalidSession
	}
	return session.Identity, nil
}

func (s *Service) createSession(session *Session) *Session {
	now := s.clock.Now()
	session.Token = generateToken("sess_")
	session.CreatedAt = now
	session.ExpiresAt = now.Add(s.sessionDuration)

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

func generateToken(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}
