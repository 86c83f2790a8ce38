package web_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/gatekeeper/internal/factory"
	"github.com/mkarls/gatekeeper/internal/model"
	"github.com/mkarls/gatekeeper/internal/services/discord"
	"github.com/mkarls/gatekeeper/internal/web"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a new test server with all dependencies wired.
// The Discord OAuth endpoints are faked with an httptest server.
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := factory.NewTestApp()
	app.DiscordClient = discord.New(fakeDiscordConfig(t))

	router := web.NewRouter(web.RouterConfig{
		Logger:              logger,
		AuthService:         app.AuthService,
		DiscordClient:       app.DiscordClient,
		LinkService:         app.LinkService,
		WhitelistService:    app.WhitelistService,
		VerificationService: app.VerificationService,
		ApplicationService:  app.ApplicationService,
		LinkLimiter:         app.LinkLimiter,
		Storage:             app.Storage,
		StaticDir:           "", // No static files in tests
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// fakeDiscordConfig starts a fake Discord server and returns a client
// config pointing at it
func fakeDiscordConfig(t *testing.T) discord.Config {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/api/v10/users/@me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "708475369614999572",
			"username":      "alice",
			"discriminator": "0",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return discord.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/discord/callback",
		AuthURL:      server.URL + "/oauth2/authorize",
		TokenURL:     server.URL + "/oauth2/token",
		APIBase:      server.URL + "/api/v10",
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil)
}

// post makes a POST request with form data
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the session cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies["session"]
	return ok
}

// Helper functions for common test operations

// signIn opens a portal session for a Discord identity directly via the
// auth service and sets up the session cookie
func (ts *webTestServer) signIn(discordID model.DiscordID) {
	ts.t.Helper()
	session, err := ts.app.AuthService.SignIn(context.Background(), &model.Identity{
		ID:       discordID,
		Username: "alice",
	})
	require.NoError(ts.t, err)
	ts.cookies.cookies["session"] = &http.Cookie{
		Name:  "session",
		Value: session.Token,
	}
}

// signInAdmin creates an admin account and session cookie
func (ts *webTestServer) signInAdmin() {
	ts.t.Helper()
	require.NoError(ts.t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))
	session, err := ts.app.AuthService.AdminLogin(context.Background(), "admin", "hunter2")
	require.NoError(ts.t, err)
	ts.cookies.cookies["session"] = &http.Cookie{
		Name:  "session",
		Value: session.Token,
	}
}

// registerAccount creates a legacy game account
func (ts *webTestServer) registerAccount(username, password string) {
	ts.t.Helper()
	ts.app.MockRandom.QueueString("1234567890")
	_, err := ts.app.AccountService.Register(context.Background(), username, password)
	require.NoError(ts.t, err)
}
