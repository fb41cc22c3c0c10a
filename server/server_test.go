package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Daskott/agenda/server/auth"
	"github.com/Daskott/agenda/server/auth/key"
	"github.com/Daskott/agenda/server/contactbook"
	"github.com/Daskott/agenda/server/models"
	"github.com/Daskott/agenda/server/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testKeyPair *key.KeyPair

func TestMain(m *testing.M) {
	auth.HashCost = bcrypt.MinCost

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	testKeyPair = key.NewKeyPair(privateKey)

	os.Exit(m.Run())
}

type testApp struct {
	server  *httptest.Server
	service *contactbook.Service
}

func newTestApp(t *testing.T) *testApp {
	db := models.InitializeTestDb(t)

	service, err := contactbook.NewService(models.NewUserRepository(db), models.NewContactRepository(db))
	require.Nil(t, err)

	sessions, err := session.NewManager(filepath.Join(t.TempDir(), "sessions"), []byte("test-session-key-0123456789abcdefghij"))
	require.Nil(t, err)

	agendaServer, err := NewServer(Options{Service: service, Sessions: sessions, KeyPair: testKeyPair})
	require.Nil(t, err)

	server := httptest.NewServer(agendaServer)
	t.Cleanup(server.Close)

	return &testApp{server: server, service: service}
}

// newBrowser returns a client that keeps cookies & doesn't follow redirects
func (app *testApp) newBrowser(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.Nil(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type pageResponse struct {
	status    int
	location  string
	requestID string
	body      string
}

func doRequest(t *testing.T, client *http.Client, req *http.Request) pageResponse {
	t.Helper()

	res, err := client.Do(req)
	require.Nil(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.Nil(t, err)

	return pageResponse{
		status:    res.StatusCode,
		location:  res.Header.Get("Location"),
		requestID: res.Header.Get(REQUEST_ID_HEADER),
		body:      string(body),
	}
}

func (app *testApp) get(t *testing.T, client *http.Client, path string) pageResponse {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, app.server.URL+path, nil)
	require.Nil(t, err)

	return doRequest(t, client, req)
}

func (app *testApp) postForm(t *testing.T, client *http.Client, path string, form url.Values) pageResponse {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, app.server.URL+path, strings.NewReader(form.Encode()))
	require.Nil(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doRequest(t, client, req)
}

func (app *testApp) registerAndLogin(t *testing.T, client *http.Client, username, password string) {
	t.Helper()

	res := app.postForm(t, client, "/register", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, res.status)

	res = app.postForm(t, client, "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, res.status)
}

func contactForm(nombres, apellidos, telefono string) url.Values {
	return url.Values{
		"nombres":   {nombres},
		"apellidos": {apellidos},
		"direccion": {""},
		"telefono":  {telefono},
		"email":     {""},
		"genero":    {"Mujer"},
	}
}

func TestContactBookFlow(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	res := app.postForm(t, browser, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/login", res.location)

	res = app.postForm(t, browser, "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)

	res = app.postForm(t, browser, "/contacto_add", contactForm("Ana", "Ruiz", "555"))
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)

	res = app.get(t, browser, "/")
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "Ana")
	assert.Contains(t, res.body, "Ruiz")
	assert.Contains(t, res.body, "555")

	user, err := app.service.Authenticate(context.Background(), contactbook.Credentials{Username: "alice", Password: "pw1"})
	require.Nil(t, err)
	contacts, err := app.service.List(context.Background(), user)
	require.Nil(t, err)
	require.Len(t, contacts, 1)
	contactPath := fmt.Sprintf("/%v", contacts[0].ID)

	res = app.get(t, browser, "/contacto_update"+contactPath)
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `value="555"`)

	res = app.postForm(t, browser, "/contacto_update"+contactPath, contactForm("Ana", "Ruiz", "999"))
	assert.Equal(t, http.StatusFound, res.status)

	res = app.get(t, browser, "/")
	assert.Contains(t, res.body, "999")
	assert.NotContains(t, res.body, "555")

	res = app.get(t, browser, "/contacto_delete"+contactPath)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/", res.location)

	res = app.get(t, browser, "/")
	assert.NotContains(t, res.body, "Ana")
	assert.Contains(t, res.body, "No contacts yet")

	res = app.get(t, browser, "/contacto_delete"+contactPath)
	assert.Equal(t, http.StatusNotFound, res.status, "Deleting a missing contact should 404")

	res = app.get(t, browser, "/logout")
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/login", res.location)

	res = app.get(t, browser, "/")
	assert.Equal(t, http.StatusFound, res.status, "Logout should invalidate the session")
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	testCases := []struct {
		description string
		path        string
	}{
		{"contact list", "/"},
		{"add form", "/contacto_add"},
		{"update form", "/contacto_update/1"},
		{"delete", "/contacto_delete/1"},
	}

	for _, tc := range testCases {
		res := app.get(t, browser, tc.path)
		assert.Equal(t, http.StatusFound, res.status, tc.description)
		assert.Equal(t, "/login?next="+url.QueryEscape(tc.path), res.location, tc.description)
	}

	res := app.postForm(t, browser, "/contacto_add", contactForm("Ana", "Ruiz", "555"))
	assert.Equal(t, http.StatusFound, res.status)
	assert.True(t, strings.HasPrefix(res.location, "/login"))
}

func TestLoginRedirectsToNext(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	res := app.postForm(t, browser, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
	require.Equal(t, http.StatusFound, res.status)

	testCases := []struct {
		description string
		next        string
		expected    string
	}{
		{"local path", "/contacto_add", "/contacto_add"},
		{"absolute url", "https://evil.example.com/", "/"},
		{"protocol relative url", "//evil.example.com", "/"},
		{"no next", "", "/"},
	}

	for _, tc := range testCases {
		path := "/login"
		if tc.next != "" {
			path += "?next=" + url.QueryEscape(tc.next)
		}

		res := app.postForm(t, browser, path, url.Values{"username": {"alice"}, "password": {"pw1"}})
		assert.Equal(t, http.StatusFound, res.status, tc.description)
		assert.Equal(t, tc.expected, res.location, tc.description)
	}
}

func TestLoginFailure(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	res := app.postForm(t, browser, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
	require.Equal(t, http.StatusFound, res.status)

	for _, form := range []url.Values{
		{"username": {"alice"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"pw1"}},
	} {
		res := app.postForm(t, browser, "/login", form)
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Contains(t, res.body, "Invalid username or password")
	}

	res = app.get(t, browser, "/")
	assert.Equal(t, http.StatusFound, res.status, "Failed login should not create a session")
}

func TestRegisterErrors(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	res := app.postForm(t, browser, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
	require.Equal(t, http.StatusFound, res.status)

	res = app.postForm(t, browser, "/register", url.Values{"username": {"alice"}, "password": {"pw2"}})
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Contains(t, res.body, "username already taken")

	res = app.postForm(t, browser, "/register", url.Values{"username": {""}, "password": {""}})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "this field is required")
}

func TestAddContactValidation(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)
	app.registerAndLogin(t, browser, "alice", "pw1")

	form := contactForm("", "Ruiz", "555")
	form.Set("email", "not-an-email")

	res := app.postForm(t, browser, "/contacto_add", form)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "this field is required")
	assert.Contains(t, res.body, "must be a valid email address")
	assert.Contains(t, res.body, `value="Ruiz"`, "Submitted values should be kept in the form")
}

func TestContactsAreIsolatedPerUser(t *testing.T) {
	app := newTestApp(t)

	alice := app.newBrowser(t)
	app.registerAndLogin(t, alice, "alice", "pw1")
	res := app.postForm(t, alice, "/contacto_add", contactForm("Ana", "Ruiz", "555"))
	require.Equal(t, http.StatusFound, res.status)

	bob := app.newBrowser(t)
	app.registerAndLogin(t, bob, "bob", "pw2")

	res = app.get(t, bob, "/")
	assert.NotContains(t, res.body, "Ana")

	user, err := app.service.Authenticate(context.Background(), contactbook.Credentials{Username: "alice", Password: "pw1"})
	require.Nil(t, err)
	contacts, err := app.service.List(context.Background(), user)
	require.Nil(t, err)
	require.Len(t, contacts, 1)
	contactPath := fmt.Sprintf("/%v", contacts[0].ID)

	res = app.get(t, bob, "/contacto_update"+contactPath)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = app.postForm(t, bob, "/contacto_update"+contactPath, contactForm("Eve", "X", "1"))
	assert.Equal(t, http.StatusNotFound, res.status)

	res = app.get(t, bob, "/contacto_delete"+contactPath)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = app.get(t, alice, "/")
	assert.Contains(t, res.body, "Ana", "Foreign requests should not modify the contact")
	assert.NotContains(t, res.body, "Eve")
}

func TestUnknownPage(t *testing.T) {
	app := newTestApp(t)

	browser := app.newBrowser(t)

	res := app.get(t, browser, "/nope")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.body, "Not found")
	assert.NotEmpty(t, res.requestID, "Unknown pages should go through the request middlewares")

	res = app.get(t, browser, "/metrics")
	assert.Contains(t, res.body, `agenda_http_requests_total{code="404",method="GET",route="unmatched"} 1`)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	res := app.get(t, browser, "/health")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `"success":true`)

	res = app.get(t, browser, "/metrics")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `agenda_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t)
	browser := app.newBrowser(t)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/health", nil)
	require.Nil(t, err)
	res, err := browser.Do(req)
	require.Nil(t, err)
	res.Body.Close()
	assert.NotEmpty(t, res.Header.Get(REQUEST_ID_HEADER))

	req, err = http.NewRequest(http.MethodGet, app.server.URL+"/health", nil)
	require.Nil(t, err)
	req.Header.Set(REQUEST_ID_HEADER, "abc-123")
	res, err = browser.Do(req)
	require.Nil(t, err)
	res.Body.Close()
	assert.Equal(t, "abc-123", res.Header.Get(REQUEST_ID_HEADER))
}

func TestSafeRedirectTarget(t *testing.T) {
	testCases := []struct {
		next     string
		expected string
	}{
		{"", "/"},
		{"/", "/"},
		{"/contacto_update/3?x=1", "/contacto_update/3?x=1"},
		{"contacto_add", "/"},
		{"//evil.example.com/path", "/"},
		{"/\\evil.example.com", "/"},
		{"https://evil.example.com", "/"},
		{"javascript:alert(1)", "/"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, safeRedirectTarget(tc.next), tc.next)
	}
}
