package model

import (
	"regexp"
	"strings"
	"time"
)

// WhitelistKeyKind distinguishes the two key formats the registry accepts
type WhitelistKeyKind string

const (
	// WhitelistKeySerial is a 32-character hex hardware serial
	WhitelistKeySerial WhitelistKeyKind = "serial"
	// WhitelistKeyDiscord is a 17-20 digit Discord snowflake
	WhitelistKeyDiscord WhitelistKeyKind = "discord"
)

var (
	serialKeyPattern  = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)
	discordKeyPattern = regexp.MustCompile(`^[0-9]{17,20}$`)
)

// WhitelistEntry is a permission record gating verification.
// Entries never expire on their own; only admins remove them.
type WhitelistEntry struct {
	Key     string
	Kind    WhitelistKeyKind
	AddedBy string
	AddedAt time.Time
}

// ParseWhitelistKey validates a raw key and returns its normalized form
// and kind. Serials are stored uppercase. Returns ErrInvalidKeyFormat
// for anything that matches neither pattern.
func ParseWhitelistKey(raw string) (string, WhitelistKeyKind, error) {
	key := strings.TrimSpace(raw)
	switch {
	case serialKeyPattern.MatchString(key):
		return strings.ToUpper(key), WhitelistKeySerial, nil
	case discordKeyPattern.MatchString(key):
		return key, WhitelistKeyDiscord, nil
	default:
		return "", "", ErrInvalidKeyFormat
	}
}
