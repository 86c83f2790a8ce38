package model

import "errors"

// Common errors used across the application
var (
	// Game account errors
	ErrAccountNotFound     = errors.New("game account not found")
	ErrAccountNotActivated = errors.New("game account is not activated")
	ErrBadCredentials      = errors.New("game account password does not match")
	ErrUsernameTaken       = errors.New("game account username already taken")

	// Identity / link errors
	ErrIdentityNotFound       = errors.New("identity not found")
	ErrAccountNotLinked       = errors.New("identity has no linked game account")
	ErrAccountLinkedElsewhere = errors.New("game account is already linked to another identity")

	// Whitelist errors
	ErrNotWhitelisted         = errors.New("identity is not whitelisted")
	ErrInvalidKeyFormat       = errors.New("whitelist key has invalid format")
	ErrDuplicateKey           = errors.New("whitelist key already present")
	ErrWhitelistEntryNotFound = errors.New("whitelist entry not found")

	// Verification session errors
	ErrNoSession = errors.New("identity has no verification session")

	// Application errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrApplicationPending  = errors.New("identity already has a pending application")
	ErrApplicationClosed   = errors.New("application has already been reviewed")

	// Admin errors
	ErrAdminNotFound = errors.New("admin user not found")

	// Rate limiting
	ErrRateLimited = errors.New("too many attempts, try again later")
)
