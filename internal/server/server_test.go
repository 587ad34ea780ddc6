package server

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

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/database"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(db, opts, logger).Router())
	t.Cleanup(srv.Close)
	return srv
}

// client is a browser-like user agent with its own cookie jar.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{
		t:    t,
		base: srv.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// post submits a form as a JSON client and decodes the JSON response.
func (c *client) post(path string, form url.Values) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *client) get(path string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *client) do(req *http.Request) (int, map[string]any) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func (c *client) sessionCookie() *http.Cookie {
	u, _ := url.Parse(c.base)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == auth.SessionCookieName {
			return ck
		}
	}
	return nil
}

func (c *client) signup(name, email string) {
	c.t.Helper()
	status, body := c.post("/signup", url.Values{
		"name":     {name},
		"email":    {email},
		"password": {"password123"},
	})
	require.Equal(c.t, http.StatusOK, status, "signup: %v", body)
	require.NotNil(c.t, c.sessionCookie(), "signup should set a session cookie")
}

func (c *client) createHome(name string) (id, shareCode string) {
	c.t.Helper()
	status, body := c.post("/homes", url.Values{"name": {name}})
	require.Equal(c.t, http.StatusOK, status, "create home: %v", body)
	id = strings.TrimPrefix(body["redirect"].(string), "/homes/")

	status, view := c.get("/homes/" + id + "/manage")
	require.Equal(c.t, http.StatusOK, status)
	home := view["home"].(map[string]any)
	return id, home["share_code"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)

	status, body := c.get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsToggle(t *testing.T) {
	on := newTestServer(t, Options{Metrics: true})
	resp, err := http.Get(on.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	off := newTestServer(t, Options{})
	c := newClient(t, off)
	status, _ := c.get("/metrics")
	assert.Equal(t, http.StatusUnauthorized, status, "without metrics the path falls through to the protected mux")
}

func TestAnonymousAccess(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := newClient(t, srv)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/homes", nil)
	require.NoError(t, err)
	resp, err := c.http.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	status, body := c.get("/api/homes")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["error"])

	status, _ = c.post("/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignupLoginLogout(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "Alice@Example.com")

	status, body := alice.get("/settings")
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "HashedPassword")
	assert.Equal(t, false, body["hasSoleOwnerHomes"])

	status, body = alice.post("/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", body["redirect"])
	assert.Nil(t, alice.sessionCookie(), "logout should clear the cookie")

	status, body = alice.post("/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid email or password", body["error"])

	status, body = alice.post("/login?redirect=//evil.example", url.Values{
		"email":      {"alice@example.com"},
		"password":   {"password123"},
		"rememberMe": {"on"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", body["redirect"])
	require.NotNil(t, alice.sessionCookie())

	status, body = alice.get("/login")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/", body["redirect"], "signed-in users are sent on")
}

func TestSignupDuplicate(t *testing.T) {
	srv := newTestServer(t, Options{})
	newClient(t, srv).signup("Alice", "alice@example.com")

	c := newClient(t, srv)
	status, body := c.post("/signup", url.Values{
		"name":     {"Alice Again"},
		"email":    {"ALICE@example.com"},
		"password": {"password123"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already in use", body["error"])
}

func TestOwnershipHandoff(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "alice@example.com")
	bob := newClient(t, srv)
	bob.signup("Bob", "bob@example.com")

	homeID, code := alice.createHome("Maple Street")
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)

	status, body := bob.post("/homes/join", url.Values{"shareCode": {" " + strings.ToLower(code) + " "}})
	require.Equal(t, http.StatusOK, status, "join: %v", body)
	assert.Equal(t, "/homes/"+homeID, body["redirect"])

	status, body = bob.get("/homes/" + homeID + "/manage")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "member", body["user_role"])
	assert.Len(t, body["members"], 2)

	// Sole owner cannot leave.
	status, body = alice.post("/homes/"+homeID+"/leave", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot leave home as sole owner. Transfer ownership or delete the home first.", body["error"])

	// Members cannot promote.
	status, _ = bob.post("/homes/"+homeID+"/members/promote", url.Values{"userId": {"anyone"}})
	assert.Equal(t, http.StatusForbidden, status)

	_, settings := bob.get("/settings")
	bobID := settings["user"].(map[string]any)["id"].(string)

	status, body = alice.post("/homes/"+homeID+"/members/promote", url.Values{"userId": {bobID}})
	require.Equal(t, http.StatusOK, status, "promote: %v", body)
	assert.Equal(t, true, body["success"])

	status, _ = alice.post("/homes/"+homeID+"/leave", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = bob.get("/homes/" + homeID + "/manage")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "owner", body["user_role"])
	assert.Len(t, body["members"], 1)

	status, _ = alice.get("/homes/" + homeID + "/manage")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRoomsAndChores(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "alice@example.com")
	homeID, _ := alice.createHome("Flat")

	status, body := alice.post("/homes/"+homeID+"/rooms", url.Values{"name": {"Kitchen"}})
	require.Equal(t, http.StatusOK, status, "create room: %v", body)
	room := body["room"].(map[string]any)
	assert.Equal(t, "HomeIcon", room["icon"])
	roomID := room["id"].(string)

	status, body = alice.post("/homes/"+homeID+"/chores", url.Values{
		"roomId":         {roomID},
		"title":          {"Mop"},
		"frequencyWeeks": {"99"},
	})
	require.Equal(t, http.StatusOK, status, "create chore: %v", body)
	c := body["chore"].(map[string]any)
	assert.Equal(t, float64(52), c["frequency_weeks"])
	choreID := c["id"].(string)

	status, _ = alice.post("/homes/"+homeID+"/chores/"+choreID+"/complete", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = alice.get("/homes/" + homeID)
	require.Equal(t, http.StatusOK, status)
	rooms := body["rooms"].([]any)
	require.Len(t, rooms, 1)
	chores := rooms[0].(map[string]any)["chores"].([]any)
	require.Len(t, chores, 1)
	assert.Equal(t, "green", chores[0].(map[string]any)["color"])

	status, body = alice.post("/homes/"+homeID+"/chores/missing/complete", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Chore not found", body["error"])

	mallory := newClient(t, srv)
	mallory.signup("Mallory", "mallory@example.com")
	status, _ = mallory.get("/homes/" + homeID)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = mallory.post("/homes/"+homeID+"/chores/"+choreID+"/delete", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestChangePasswordRotatesSession(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "alice@example.com")
	before := alice.sessionCookie().Value

	other := newClient(t, srv)
	status, _ := other.post("/login", url.Values{"email": {"alice@example.com"}, "password": {"password123"}})
	require.Equal(t, http.StatusOK, status)

	status, body := alice.post("/settings/password", url.Values{
		"currentPassword": {"password123"},
		"newPassword":     {"password456"},
		"confirmPassword": {"password456"},
	})
	require.Equal(t, http.StatusOK, status, "change password: %v", body)
	assert.Equal(t, "Password changed successfully", body["message"])
	assert.NotEqual(t, before, alice.sessionCookie().Value)

	status, _ = alice.get("/settings")
	assert.Equal(t, http.StatusOK, status, "the new session works")

	status, _ = other.get("/api/settings")
	assert.Equal(t, http.StatusUnauthorized, status, "other sessions are signed out")
}

func TestDeleteAccount(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "alice@example.com")
	homeID, _ := alice.createHome("Flat")

	_, body := alice.get("/settings")
	assert.Equal(t, true, body["hasSoleOwnerHomes"])

	status, body := alice.post("/settings/delete-account", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "sole owner")

	status, _ = alice.post("/homes/"+homeID+"/delete", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = alice.post("/settings/delete-account", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/signup", body["redirect"])

	status, _ = alice.get("/api/settings")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSignOutEverywhere(t *testing.T) {
	srv := newTestServer(t, Options{})

	alice := newClient(t, srv)
	alice.signup("Alice", "alice@example.com")

	laptop := newClient(t, srv)
	status, _ := laptop.post("/login", url.Values{"email": {"alice@example.com"}, "password": {"password123"}})
	require.Equal(t, http.StatusOK, status)

	status, body := alice.post("/settings/sign-out-everywhere", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/login", body["redirect"])
	assert.Nil(t, alice.sessionCookie(), "cookie should be cleared")

	status, _ = laptop.get("/api/settings")
	assert.Equal(t, http.StatusUnauthorized, status)
}
