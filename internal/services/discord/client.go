// Package discord implements the OAuth2 authorization-code flow against
// Discord and fetches the signed-in user's profile. The portal never
// sees Discord passwords; all it keeps is the user's id, username and
// avatar hash.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/mkarls/gatekeeper/internal/model"
)

const (
	defaultAuthURL  = "https://discord.com/oauth2/authorize"
	defaultTokenURL = "https://discord.com/api/oauth2/token"
	defaultAPIBase  = "https://discord.com/api/v10"
)

// Config holds Discord application credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable for tests
	AuthURL  string
	TokenURL string
	APIBase  string
}

// Client talks to Discord's OAuth2 and user endpoints
type Client struct {
	oauth2  oauth2.Config
	apiBase string
}

// New creates a Discord OAuth client
func New(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}

	return &Client{
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		apiBase: cfg.APIBase,
	}
}

// AuthCodeURL returns the Discord consent page URL for the given
// anti-forgery state token
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth2.AuthCodeURL(state)
}

// CompleteLogin exchanges the authorization code and fetches the
// authenticated user's profile
func (c *Client) CompleteLogin(ctx context.Context, code string) (*model.Identity, error) {
	token, err := c.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("discord: token exchange failed: %w", err)
	}
	return c.fetchUser(ctx, token)
}

func (c *Client) fetchUser(ctx context.Context, token *oauth2.Token) (*model.Identity, error) {
	httpClient := c.oauth2.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discord: fetching user profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord: user endpoint returned %d", resp.StatusCode)
	}

	var user struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		Discriminator string `json:"discriminator"`
		Avatar        string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("discord: decoding user profile: %w", err)
	}

	return &model.Identity{
		ID:            model.DiscordID(user.ID),
		Username:      user.Username,
		Discriminator: user.Discriminator,
		AvatarHash:    user.Avatar,
	}, nil
}
