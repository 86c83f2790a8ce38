package model

import "time"

// AdminUser is a portal administrator. Admins authenticate locally with
// a password rather than through Discord, so the admin surface keeps
// working even when OAuth is down.
type AdminUser struct {
	Username     string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
