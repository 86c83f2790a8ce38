package response

import (
	"time"

	"github.com/mkarls/gatekeeper/internal/model"
)

// LoginResponse is the response for a successful admin login
type LoginResponse struct {
	Token     string `json:"token"`
	AdminName string `json:"admin_name"`
}

// VerificationStatus is the response for the verification status endpoint
type VerificationStatus struct {
	Status           string     `json:"status"`
	SecondsRemaining int64      `json:"seconds_remaining"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// VerificationStatusFromModel converts model.VerificationStatus
func VerificationStatusFromModel(s *model.VerificationStatus) VerificationStatus {
	return VerificationStatus{
		Status:           string(s.State),
		SecondsRemaining: s.SecondsRemaining,
		ExpiresAt:        s.ExpiresAt,
	}
}

// WhitelistEntry represents a whitelist entry in API responses
type WhitelistEntry struct {
	Key     string    `json:"key"`
	Kind    string    `json:"kind"`
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// WhitelistEntryFromModel converts model.WhitelistEntry
func WhitelistEntryFromModel(e *model.WhitelistEntry) WhitelistEntry {
	return WhitelistEntry{
		Key:     e.Key,
		Kind:    string(e.Kind),
		AddedBy: e.AddedBy,
		AddedAt: e.AddedAt,
	}
}

// WhitelistEntriesFromModel converts a slice of whitelist entries
func WhitelistEntriesFromModel(entries []*model.WhitelistEntry) []WhitelistEntry {
	out := make([]WhitelistEntry, len(entries))
	for i, e := range entries {
		out[i] = WhitelistEntryFromModel(e)
	}
	return out
}

// Application represents a whitelist application in API responses
type Application struct {
	ID         string     `json:"id"`
	DiscordID  string     `json:"discord_id"`
	Serial     string     `json:"serial"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// ApplicationFromModel converts model.Application
func ApplicationFromModel(a *model.Application) Application {
	return Application{
		ID:         a.ID,
		DiscordID:  string(a.DiscordID),
		Serial:     a.Serial,
		Message:    a.Message,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		ReviewedBy: a.ReviewedBy,
		ReviewedAt: a.ReviewedAt,
	}
}

// ApplicationsFromModel converts a slice of applications
func ApplicationsFromModel(apps []*model.Application) []Application {
	out := make([]Application, len(apps))
	for i, a := range apps {
		out[i] = ApplicationFromModel(a)
	}
	return out
}

// LinkedAccount describes the game account linked to an identity
type LinkedAccount struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	LinkedAt  time.Time `json:"linked_at"`
}

// UserStatus combines an identity's verification state and linked
// account for admin lookups
type UserStatus struct {
	Verification  VerificationStatus `json:"verification"`
	LinkedAccount *LinkedAccount     `json:"linked_account"`
}

// AuditEntry represents an audit log entry in API responses
type AuditEntry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	DiscordID  string    `json:"discord_id"`
	SourceAddr string    `json:"source_addr,omitempty"`
	ClientInfo string    `json:"client_info,omitempty"`
	At         time.Time `json:"at"`
}

// AuditEntryFromModel converts model.AuditEntry
func AuditEntryFromModel(e *model.AuditEntry) AuditEntry {
	return AuditEntry{
		ID:         e.ID,
		Kind:       string(e.Kind),
		DiscordID:  string(e.DiscordID),
		SourceAddr: e.SourceAddr,
		ClientInfo: e.ClientInfo,
		At:         e.CreatedAt,
	}
}

// AuditEntriesFromModel converts a slice of audit entries
func AuditEntriesFromModel(entries []*model.AuditEntry) []AuditEntry {
	out := make([]AuditEntry, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryFromModel(e)
	}
	return out
}
