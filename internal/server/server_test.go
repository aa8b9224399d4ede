package server_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/planttoucher/internal/config"
	"github.com/sakif/planttoucher/internal/model"
	"github.com/sakif/planttoucher/internal/server"
)

// newTestServer assembles the full application — router, middleware,
// services, an in-memory database, the real templates — behind an httptest
// server. Each test gets a fresh database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Port:        0,
		DBPath:      ":memory:",
		TemplateDir: "../../web/templates",
		StaticDir:   "../../web/static",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := server.New(cfg, logger)
	require.NoError(t, err, "assembling the server")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newBrowser returns a client with its own cookie jar that does NOT follow
// redirects — the tests assert on the redirects themselves.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, c *http.Client, rawURL string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(rawURL, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, c *http.Client, rawURL string) *http.Response {
	t.Helper()
	resp, err := c.Get(rawURL)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// registerAndLogin walks a browser through local registration and login.
func registerAndLogin(t *testing.T, c *http.Client, baseURL, username string) {
	t.Helper()

	resp := postForm(t, c, baseURL+"/register", url.Values{"register_username": {username}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, "register should redirect")
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = postForm(t, c, baseURL+"/login", url.Values{"login_username": {username}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, "login should redirect home")
	require.Equal(t, "/", resp.Header.Get("Location"))
}

// =========================================================================
// FULL USER JOURNEY
// =========================================================================

func TestUserJourney(t *testing.T) {
	ts := newTestServer(t)
	alice := newBrowser(t)
	bob := newBrowser(t)

	// The empty feed renders for anonymous visitors.
	resp := get(t, alice, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "PlantToucher")

	registerAndLogin(t, alice, ts.URL, "alice")
	registerAndLogin(t, bob, ts.URL, "bob")

	// Alice posts.
	resp = postForm(t, alice, ts.URL+"/posts", url.Values{
		"title":   {"my monstera"},
		"content": {"touched a new leaf today"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// The post shows on the feed with its author.
	resp = get(t, bob, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := body(t, resp)
	assert.Contains(t, feed, "my monstera")
	assert.Contains(t, feed, "alice")

	// Bob likes it — twice, both count. Fresh database, so this is post 1.
	resp = postForm(t, bob, ts.URL+"/like/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = postForm(t, bob, ts.URL+"/like/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var liked model.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&liked))
	assert.Equal(t, int64(2), liked.Likes)
	assert.Equal(t, "alice", liked.Username)

	// Bob cannot delete Alice's post.
	resp = postForm(t, bob, ts.URL+"/delete/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// It's still on the feed.
	resp = get(t, alice, ts.URL+"/post/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Alice deletes her own post.
	resp = postForm(t, alice, ts.URL+"/delete/1", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, alice, ts.URL+"/post/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =========================================================================
// AUTH GATES
// =========================================================================

func TestAnonymousIsRedirectedFromProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)
	anon := newBrowser(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/posts"},
		{http.MethodGet, "/profile"},
		{http.MethodPost, "/delete/1"},
		{http.MethodPost, "/unregister"},
	} {
		var resp *http.Response
		if route.method == http.MethodGet {
			resp = get(t, anon, ts.URL+route.path)
		} else {
			resp = postForm(t, anon, ts.URL+route.path, nil)
		}
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "%s %s", route.method, route.path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), "%s %s", route.method, route.path)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := postForm(t, c, ts.URL+"/login", url.Values{"login_username": {"nobody"}})
	// The form re-renders with the error instead of redirecting.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "User does not exist")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ts := newTestServer(t)
	first := newBrowser(t)
	second := newBrowser(t)

	registerAndLogin(t, first, ts.URL, "alice")

	resp := postForm(t, second, ts.URL+"/register", url.Values{"register_username": {"alice"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "already taken")
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)
	registerAndLogin(t, c, ts.URL, "alice")

	resp := get(t, c, ts.URL+"/logout")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Protected routes bounce again.
	resp = get(t, c, ts.URL+"/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

// =========================================================================
// FEED ORDERING ROUTES
// =========================================================================

func TestFeedOrderings(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	for _, path := range []string{"/", "/newest", "/oldest", "/mostLiked"} {
		resp := get(t, c, ts.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	}

	// Unknown ordering segments are 404, not a silently working page.
	resp := get(t, c, ts.URL+"/garbage")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =========================================================================
// PROFILE AND UNREGISTER
// =========================================================================

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)
	registerAndLogin(t, c, ts.URL, "alice")

	resp := postForm(t, c, ts.URL+"/posts", url.Values{
		"title":   {"profile post"},
		"content": {"visible on my page"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = get(t, c, ts.URL+"/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "alice")
	assert.Contains(t, page, "profile post")
}

// Unregistering deletes the account but orphans the posts: they stay on the
// feed under the stored author name.
func TestUnregister_OrphansPosts(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)
	registerAndLogin(t, c, ts.URL, "carol")

	resp := postForm(t, c, ts.URL+"/posts", url.Values{
		"title":   {"orphan to be"},
		"content": {"will outlive its author"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = postForm(t, c, ts.URL+"/unregister", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// Session is gone with the account.
	resp = get(t, c, ts.URL+"/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	// The post survived, author name intact, and the username is free again.
	resp = get(t, c, ts.URL+"/")
	feed := body(t, resp)
	assert.Contains(t, feed, "orphan to be")
	assert.Contains(t, feed, "carol")

	fresh := newBrowser(t)
	registerAndLogin(t, fresh, ts.URL, "carol")
}

// =========================================================================
// ANCILLARY ENDPOINTS
// =========================================================================

func TestAvatarEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := get(t, c, ts.URL+"/avatar/alice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("Cache-Control"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	// Generate some traffic first.
	get(t, c, ts.URL+"/")

	resp := get(t, c, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(body(t, resp), "planttoucher_http_requests_total"))
}

func TestLike_UnknownPost(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := postForm(t, c, ts.URL+"/like/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// OAuth routes only exist when Google credentials are configured; the test
// server runs without them.
func TestGoogleRoutesAbsentWithoutConfig(t *testing.T) {
	ts := newTestServer(t)
	c := newBrowser(t)

	resp := get(t, c, ts.URL+"/auth/google")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
