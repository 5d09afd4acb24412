package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tabstash/tabstash-server/internal/http/response"
	"github.com/tabstash/tabstash-server/internal/service"
)

// stateCookieMaxAge bounds how long an authorization round trip may take.
const stateCookieMaxAge = 10 * time.Minute

// registerOAuthRoutes mounts the browser-facing provider login flow.
// These are plain chi handlers: they speak redirects and cookies, not
// JSON, so they sit outside the huma API.
func (s *Server) registerOAuthRoutes() {
	s.router.Get("/auth", s.handleBeginAuth)
	s.router.Get("/auth/callback", s.handleAuthCallback)
	s.router.Get("/auth/logout", s.handleBrowserLogout)
	s.router.Get("/api/logout", s.handleBrowserLogout)
}

// handleBeginAuth starts the provider authorization code flow.
func (s *Server) handleBeginAuth(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		response.NotFound(w, "No identity provider is configured", s.logger)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, s.identity.AuthCodeURL(state), http.StatusFound)
}

// handleAuthCallback completes the provider flow: verify state, exchange
// the code, fetch the profile, and open a session. Success and failure
// redirect to distinct configured targets.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		response.NotFound(w, "No identity provider is configured", s.logger)
		return
	}

	ctx := r.Context()
	fail := func(reason string, err error) {
		s.logger.Warn("Provider login failed", "reason", reason, "error", err)
		s.clearAuthCookies(w)
		http.Redirect(w, r, s.config.Auth.LoginFailureRedirect, http.StatusFound)
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		fail("state mismatch", err)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		fail("provider returned no code: "+r.URL.Query().Get("error"), nil)
		return
	}

	token, err := s.identity.Exchange(ctx, code)
	if err != nil {
		fail("code exchange", err)
		return
	}

	profile, err := s.identity.FetchProfile(ctx, token)
	if err != nil {
		fail("fetch profile", err)
		return
	}

	resp, err := s.services.Auth.CompleteProviderLogin(ctx, service.ProviderLogin{
		Subject:     profile.Subject,
		Username:    profile.Nickname,
		DisplayName: profile.Name,
		AvatarURL:   profile.Picture,
		IPAddress:   getClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		fail("complete login", err)
		return
	}

	s.setAuthCookies(w, resp.AccessToken, resp.SessionID, resp.ExpiresIn)
	// State cookie is single use.
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	http.Redirect(w, r, s.config.Auth.LoginSuccessRedirect, http.StatusFound)
}

// handleBrowserLogout revokes the cookie session and redirects.
func (s *Server) handleBrowserLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionIDCookie); err == nil && cookie.Value != "" {
		if err := s.services.Auth.Logout(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("Failed to revoke session on logout", "error", err)
		}
	}

	s.clearAuthCookies(w)
	http.Redirect(w, r, s.config.Auth.LogoutRedirect, http.StatusFound)
}

func (s *Server) setAuthCookies(w http.ResponseWriter, accessToken, sessionID string, expiresIn int) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   expiresIn,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionIDCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: sessionIDCookie, Value: "", Path: "/", MaxAge: -1})
}
