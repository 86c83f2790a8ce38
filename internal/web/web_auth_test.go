package web_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeSignedOut(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assert.Contains(t, doc.Find("h1").Text(), "Player Portal")
	// Both the nav and the page body carry a sign-in link when signed out
	assert.Equal(t, 1, doc.Find(`main a[href="/auth/discord"]`).Length(), "expected a sign-in CTA in the page body")
	assert.Equal(t, 1, doc.Find(`nav a[href="/auth/discord"]`).Length(), "expected a sign-in link in the nav")
}

func TestDiscordSignInFlow(t *testing.T) {
	ts := newWebTestServer(t)

	// Start: redirected to Discord with a state cookie
	rr := ts.get("/auth/discord")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	require.Contains(t, ts.cookies.cookies, "oauth_state")

	// Callback with the right state signs us in
	rr = ts.get("/auth/discord/callback?code=good-code&state=" + state)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession(), "expected session cookie after callback")

	// Home now shows the signed-in identity
	rr = ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assert.Contains(t, doc.Find(".nav-user").Text(), "alice")
}

func TestDiscordCallbackRejectsBadState(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/auth/discord")
	require.Equal(t, http.StatusSeeOther, rr.Code)

	rr = ts.get("/auth/discord/callback?code=good-code&state=forged")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, ts.cookies.hasSession(), "forged state must not open a session")
}

func TestLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signIn("708475369614999572")

	rr := ts.post("/auth/logout", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, ts.cookies.hasSession())
}

func TestProtectedRouteRedirectsWhenSignedOut(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/link")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/?next=/link", rr.Header().Get("Location"))
}

func TestAdminLogin(t *testing.T) {
	ts := newWebTestServer(t)
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))

	// Wrong password re-renders the form with an error
	rr := ts.post("/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	doc := parseHTML(rr.Body)
	assert.Contains(t, doc.Find(".form-error").Text(), "Invalid username or password")

	// Correct password redirects to the whitelist page
	rr = ts.post("/admin/login", url.Values{"username": {"admin"}, "password": {"hunter2"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/whitelist", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())
}

func TestAdminLoginRateLimited(t *testing.T) {
	ts := newWebTestServer(t)
	require.NoError(t, ts.app.AuthService.CreateAdmin(context.Background(), "admin", "hunter2"))

	for i := 0; i < 10; i++ {
		rr := ts.post("/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	// Even the correct password is refused once the window is exhausted
	rr := ts.post("/admin/login", url.Values{"username": {"admin"}, "password": {"hunter2"}})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	doc := parseHTML(rr.Body)
	assert.Contains(t, doc.Find(".form-error").Text(), "Too many attempts")
}

func TestAdminRoutesRedirectNonAdmins(t *testing.T) {
	ts := newWebTestServer(t)
	ts.signIn("708475369614999572")

	rr := ts.get("/admin/whitelist")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/login", rr.Header().Get("Location"))
}
