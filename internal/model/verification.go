package model

import "time"

// VerificationSession is the time-boxed "may join the game server now"
// window for a Discord identity. One row per identity; re-verifying
// replaces the window rather than stacking a second one.
type VerificationSession struct {
	DiscordID  DiscordID
	VerifiedAt time.Time
	ExpiresAt  time.Time
	SourceAddr string
	ClientInfo string
}

// VerificationState is the lazily computed lifecycle state of a session
type VerificationState string

const (
	VerificationNone    VerificationState = "none"
	VerificationActive  VerificationState = "active"
	VerificationExpired VerificationState = "expired"
)

// VerificationStatus is what status checks report. SecondsRemaining is
// derived so countdown UIs don't have to do clock math, but ExpiresAt
// is included for clients that want a drift-tolerant countdown.
type VerificationStatus struct {
	State            VerificationState
	SecondsRemaining int64
	ExpiresAt        *time.Time
}

// AuditKind classifies audit log entries
type AuditKind string

const (
	AuditVerify AuditKind = "verify"
	AuditLink   AuditKind = "link"
	AuditUnlink AuditKind = "unlink"
)

// AuditEntry is an append-only record of a sensitive action.
// Writing these is best effort; it never fails the action itself.
type AuditEntry struct {
	ID         string // uuid
	DiscordID  DiscordID
	Kind       AuditKind
	SourceAddr string
	ClientInfo string
	CreatedAt  time.Time
}
