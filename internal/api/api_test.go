package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarls/gatekeeper/internal/api"
	"github.com/mkarls/gatekeeper/internal/api/response"
	"github.com/mkarls/gatekeeper/internal/factory"
	"github.com/mkarls/gatekeeper/internal/model"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		AuthService:         app.AuthService,
		VerificationService: app.VerificationService,
		WhitelistService:    app.WhitelistService,
		ApplicationService:  app.ApplicationService,
		LinkService:         app.LinkService,
		Storage:             app.Storage,
		LoginLimiter:        app.LinkLimiter,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// signIn opens a Discord portal session and returns its token
func (ts *testServer) signIn(t *testing.T, discordID model.DiscordID) string {
	t.Helper()
	session, err := ts.app.AuthService.SignIn(context.Background(), &model.Identity{
		ID:       discordID,
		Username: "alice",
	})
	require.NoError(t, err)
	return session.Token
}

// adminToken creates an admin account and returns a session token
func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))
	session, err := ts.app.AuthService.AdminLogin(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	return session.Token
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestAdminLoginIssuesToken(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))

	body := map[string]string{"username": "admin", "password": "hunter2"}
	rr := ts.request(http.MethodPost, "/api/auth/login", body, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var result struct {
		Token     string `json:"token"`
		AdminName string `json:"admin_name"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, "admin", result.AdminName)

	// The issued token grants access to admin routes
	rr = ts.request(http.MethodGet, "/api/admin/whitelist", nil, result.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Logout invalidates it
	rr = ts.request(http.MethodPost, "/api/auth/logout", nil, result.Token)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodGet, "/api/admin/whitelist", nil, result.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))

	body := map[string]string{"username": "admin", "password": "wrong"}
	rr := ts.request(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

func TestAdminLoginRateLimited(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))

	// Burn through the fixed window with bad passwords
	body := map[string]string{"username": "admin", "password": "wrong"}
	for i := 0; i < 10; i++ {
		rr := ts.request(http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	// Even the right password is refused until the window passes
	body["password"] = "hunter2"
	rr := ts.request(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")

	ts.app.MockClock.Advance(time.Hour + time.Second)
	rr = ts.request(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestVerificationStatusRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/verification/status", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVerificationStatusNoSession(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t, "708475369614999572")

	rr := ts.request(http.MethodGet, "/api/verification/status", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var status response.VerificationStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "none", status.Status)
	assert.Zero(t, status.SecondsRemaining)
}

func TestVerificationStatusActive(t *testing.T) {
	ts := newTestServer(t)
	const discordID = model.DiscordID("708475369614999572")
	token := ts.signIn(t, discordID)

	// Whitelist and link the identity, then issue a session
	ts.app.MockRandom.QueueString("1234567890")
	_, err := ts.app.AccountService.Register(context.Background(), "alice", "correctpass")
	require.NoError(t, err)
	_, err = ts.app.LinkService.Link(context.Background(), discordID, "alice", "correctpass")
	require.NoError(t, err)
	_, err = ts.app.WhitelistService.Add(context.Background(), string(discordID), "admin")
	require.NoError(t, err)
	_, err = ts.app.VerificationService.Issue(context.Background(), discordID, "203.0.113.7", "launcher/2.1")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/verification/status", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var status response.VerificationStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "active", status.Status)
	assert.Equal(t, int64(300), status.SecondsRemaining)
	require.NotNil(t, status.ExpiresAt)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signIn(t, "708475369614999572")

	rr := ts.request(http.MethodGet, "/api/admin/whitelist", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/admin/whitelist", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminWhitelistCRUD(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	// Add a serial
	body := map[string]string{"key": "0123456789abcdef0123456789abcdef"}
	rr := ts.request(http.MethodPost, "/api/admin/whitelist", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var entry response.WhitelistEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entry))
	assert.Equal(t, "0123456789ABCDEF0123456789ABCDEF", entry.Key)
	assert.Equal(t, "serial", entry.Kind)
	assert.Equal(t, "admin", entry.AddedBy)

	// Duplicate is a conflict
	rr = ts.request(http.MethodPost, "/api/admin/whitelist", body, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "DUPLICATE_KEY")

	// Malformed key is a bad request
	rr = ts.request(http.MethodPost, "/api/admin/whitelist", map[string]string{"key": "nope"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_KEY_FORMAT")

	// List contains the entry
	rr = ts.request(http.MethodGet, "/api/admin/whitelist", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []response.WhitelistEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	// Remove it
	rr = ts.request(http.MethodDelete, "/api/admin/whitelist/0123456789ABCDEF0123456789ABCDEF", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Removing again is a 404
	rr = ts.request(http.MethodDelete, "/api/admin/whitelist/0123456789ABCDEF0123456789ABCDEF", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminApplicationReview(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)

	app, err := ts.app.ApplicationService.Apply(context.Background(), "708475369614999572", "0123456789abcdef0123456789abcdef", "hi")
	require.NoError(t, err)

	// Pending list shows it
	rr := ts.request(http.MethodGet, "/api/admin/applications", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var apps []response.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apps))
	require.Len(t, apps, 1)

	// Approve it
	rr = ts.request(http.MethodPost, "/api/admin/applications/"+app.ID+"/review", map[string]string{"action": "approve"}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var reviewed response.Application
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reviewed))
	assert.Equal(t, "approved", reviewed.Status)
	assert.Equal(t, "admin", reviewed.ReviewedBy)

	// Re-reviewing is a conflict
	rr = ts.request(http.MethodPost, "/api/admin/applications/"+app.ID+"/review", map[string]string{"action": "reject"}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Bad action is a bad request
	rr = ts.request(http.MethodPost, "/api/admin/applications/"+app.ID+"/review", map[string]string{"action": "maybe"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminUserStatus(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken(t)
	const discordID = model.DiscordID("708475369614999572")

	ts.app.MockRandom.QueueString("1234567890")
	_, err := ts.app.AccountService.Register(context.Background(), "alice", "correctpass")
	require.NoError(t, err)
	_, err = ts.app.LinkService.Link(context.Background(), discordID, "alice", "correctpass")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/admin/status/"+string(discordID), nil, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Verification  response.VerificationStatus `json:"verification"`
		LinkedAccount *response.LinkedAccount     `json:"linked_account"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "none", out.Verification.Status)
	require.NotNil(t, out.LinkedAccount)
	assert.Equal(t, "alice", out.LinkedAccount.Username)
}
