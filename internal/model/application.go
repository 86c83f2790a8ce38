package model

import "time"

// ApplicationStatus is the review state of a whitelist application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a player's request for whitelist membership.
// One pending application per identity at a time.
type Application struct {
	ID         string // uuid
	DiscordID  DiscordID
	Serial     string // 32-char hex hardware serial, stored uppercase
	Message    string
	Status     ApplicationStatus
	CreatedAt  time.Time
	ReviewedBy string
	ReviewedAt *time.Time
}
