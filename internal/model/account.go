package model

import "time"

// AccountID uniquely identifies a legacy game account
type AccountID int64

// GameAccount is a row in the legacy game server's accounts store.
// The portal reads these and creates them on registration, but never
// deletes them; the game server owns the table.
type GameAccount struct {
	ID           AccountID
	Username     string // unique, case-sensitive as stored
	PasswordHash string // two-stage MD5 digest, lowercase hex
	Salt         string // 10 decimal digits
	Activated    *bool  // nil when the game server never set the flag
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// IsActivated reports whether the account may log in.
// An absent flag counts as activated (legacy rows predate the column).
func (a *GameAccount) IsActivated() bool {
	return a.Activated == nil || *a.Activated
}

// DiscordID is the stable snowflake id of a Discord user
type DiscordID string

// Identity is an authenticated Discord user as last seen at sign-in
type Identity struct {
	ID            DiscordID
	Username      string
	Discriminator string // "0" for migrated usernames
	AvatarHash    string
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// AccountLink ties a Discord identity to a legacy game account.
// At most one identity holds the primary link for a given account.
type AccountLink struct {
	DiscordID DiscordID
	AccountID AccountID
	Primary   bool
	LinkedAt  time.Time
}
