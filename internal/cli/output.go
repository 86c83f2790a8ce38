package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LoginResult:
		o.printLoginResult(v)
	case []WhitelistEntry:
		o.printWhitelistEntries(v)
	case WhitelistEntry:
		o.printWhitelistEntry(v)
	case []Application:
		o.printApplications(v)
	case Application:
		o.printApplication(v)
	case UserStatus:
		o.printUserStatus(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// LoginResult response type (matches API)
type LoginResult struct {
	Token     string `json:"token"`
	AdminName string `json:"admin_name"`
}

// WhitelistEntry response type
type WhitelistEntry struct {
	Key     string    `json:"key"`
	Kind    string    `json:"kind"`
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Application response type
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

// Verification response type
type Verification struct {
	Status           string     `json:"status"`
	SecondsRemaining int64      `json:"seconds_remaining"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

// LinkedAccount response type
type LinkedAccount struct {
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	LinkedAt  time.Time `json:"linked_at"`
}

// UserStatus response type
type UserStatus struct {
	Verification  Verification   `json:"verification"`
	LinkedAccount *LinkedAccount `json:"linked_account"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printLoginResult(l LoginResult) {
	fmt.Printf("Logged in as: %s\n", l.AdminName)
}

func (o *Output) printWhitelistEntry(e WhitelistEntry) {
	fmt.Printf("Key: %s\n", e.Key)
	fmt.Printf("Kind: %s\n", e.Kind)
	if e.AddedBy != "" {
		fmt.Printf("Added by: %s\n", e.AddedBy)
	}
	fmt.Printf("Added at: %s\n", e.AddedAt.Format(time.RFC3339))
}

func (o *Output) printWhitelistEntries(entries []WhitelistEntry) {
	if len(entries) == 0 {
		fmt.Println("No whitelist entries")
		return
	}

	fmt.Printf("Whitelist (%d):\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %-36s %-8s %s\n", e.Key, e.Kind, e.AddedAt.Format(time.RFC3339))
	}
}

func (o *Output) printApplication(a Application) {
	fmt.Printf("Application: %s\n", a.ID)
	fmt.Printf("Discord id: %s\n", a.DiscordID)
	fmt.Printf("Serial: %s\n", a.Serial)
	fmt.Printf("Status: %s\n", a.Status)
	fmt.Printf("Created at: %s\n", a.CreatedAt.Format(time.RFC3339))
	if a.Message != "" {
		fmt.Printf("Message: %s\n", a.Message)
	}
	if a.ReviewedBy != "" {
		fmt.Printf("Reviewed by: %s\n", a.ReviewedBy)
	}
}

func (o *Output) printApplications(apps []Application) {
	if len(apps) == 0 {
		fmt.Println("No pending applications")
		return
	}

	fmt.Printf("Pending applications (%d):\n", len(apps))
	for _, a := range apps {
		fmt.Printf("  %s  %s  %s\n", a.ID, a.DiscordID, a.Serial)
		if a.Message != "" {
			fmt.Printf("    %q\n", a.Message)
		}
	}
}

func (o *Output) printUserStatus(s UserStatus) {
	fmt.Printf("Verification: %s\n", s.Verification.Status)
	if s.Verification.Status == "active" {
		fmt.Printf("Seconds remaining: %d\n", s.Verification.SecondsRemaining)
	}
	if s.LinkedAccount != nil {
		fmt.Printf("Linked account: %s (id %d)\n", s.LinkedAccount.Username, s.LinkedAccount.AccountID)
		fmt.Printf("Linked at: %s\n", s.LinkedAccount.LinkedAt.Format(time.RFC3339))
	} else {
		fmt.Println("Linked account: none")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
