package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockProvider starts a fake identity provider and wires it into the
// server.
func newMockProvider(t *testing.T, ts *testServer) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"auth0|u123","name":"Alice","nickname":"alice","picture":"https://cdn.example.com/a.png"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ts.installIdentity(srv.URL)
	return srv
}

// stateCookieValue extracts the OAuth state cookie set by /auth.
func stateCookieValue(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == oauthStateCookie {
			return cookie.Value
		}
	}
	t.Fatal("state cookie not set")
	return ""
}

func TestBeginAuth_RedirectsToProvider(t *testing.T) {
	ts := setupTestServer(t)
	srv := newMockProvider(t, ts)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth", nil))

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Location"), srv.URL+"/authorize")
	assert.Equal(t, stateCookieValue(t, w), location.Query().Get("state"))
}

func TestBeginAuth_NoProviderConfigured(t *testing.T) {
	ts := setupTestServer(t)

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthCallback_Success(t *testing.T) {
	ts := setupTestServer(t)
	newMockProvider(t, ts)

	// Begin the flow to obtain a state cookie.
	begin := httptest.NewRecorder()
	ts.ServeHTTP(begin, httptest.NewRequest(http.MethodGet, "/auth", nil))
	state := stateCookieValue(t, begin)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state+"&code=good-code", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: state})

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/welcome", w.Header().Get("Location"), "success redirects to the configured success target")

	var tokenCookie, sessionCookie string
	for _, cookie := range w.Result().Cookies() {
		switch cookie.Name {
		case accessTokenCookie:
			tokenCookie = cookie.Value
		case sessionIDCookie:
			sessionCookie = cookie.Value
		}
	}
	assert.NotEmpty(t, tokenCookie)
	assert.NotEmpty(t, sessionCookie)

	// The provider account was created.
	user, err := ts.store.GetUserByAuthID(req.Context(), "auth0|u123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice", user.DisplayName)
}

func TestAuthCallback_StateMismatchRedirectsToFailure(t *testing.T) {
	ts := setupTestServer(t)
	newMockProvider(t, ts)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=forged&code=good-code", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "expected"})

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=auth_failed", w.Header().Get("Location"), "failure redirects to the configured failure target")
}

func TestAuthCallback_BadCodeRedirectsToFailure(t *testing.T) {
	ts := setupTestServer(t)
	newMockProvider(t, ts)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=st&code=bad-code", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=auth_failed", w.Header().Get("Location"))
}

func TestBrowserLogout_ClearsCookiesAndRedirects(t *testing.T) {
	ts := setupTestServer(t)
	login := ts.login(t, "browseruser")

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionIDCookie, Value: login.SessionID})

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/goodbye", w.Header().Get("Location"))

	// Session is revoked, the refresh token is dead.
	resp := ts.doJSON(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": login.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == accessTokenCookie || cookie.Name == sessionIDCookie {
			assert.Less(t, cookie.MaxAge, 0, "auth cookies must be expired")
		}
	}
}
