package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgallion1/hoteldistro/internal/config"
	"github.com/dgallion1/hoteldistro/internal/metrics"
	"github.com/gorilla/sessions"
)

const sessionAuthenticated = "authenticated"

// publicPrefixes are reachable without the site password.
var publicPrefixes = []string{"/login", "/api/auth", "/health", "/favicon", "/static"}

// NewSessionStore builds the signed cookie store for the site gate. Without
// configured keys a random key is generated, so sessions do not survive a
// restart.
func NewSessionStore(cfg config.Config) (*sessions.CookieStore, error) {
	var keyPairs [][]byte
	if len(cfg.SessionKeys) == 0 {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		keyPairs = append(keyPairs, key)
	}
	for _, k := range cfg.SessionKeys {
		keyPairs = append(keyPairs, []byte(k))
	}

	store := sessions.NewCookieStore(keyPairs...)
	store.MaxAge(int(cfg.AuthMaxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.CookieSecure
	store.Options.SameSite = http.SameSiteLaxMode
	return store, nil
}

// SiteGate lets through requests that carry an authenticated session.
// Others get 401 on API paths and a redirect to the login page elsewhere.
// An empty site password disables the gate.
func (s *Server) SiteGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.SitePassword == "" || isPublicPath(r.URL.Path) || s.authenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login?from="+url.QueryEscape(r.URL.Path), http.StatusFound)
	})
}

func isPublicPath(p string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (s *Server) authenticated(r *http.Request) bool {
	session, err := s.sessions.Get(r, s.cfg.AuthCookieName)
	if err != nil {
		return false
	}
	ok, _ := session.Values[sessionAuthenticated].(bool)
	return ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(s.cfg.SitePassword)) != 1 {
		metrics.AuthAttempts.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false})
		return
	}

	// A stale or unreadable cookie still yields a fresh session.
	session, _ := s.sessions.Get(r, s.cfg.AuthCookieName)
	session.Values[sessionAuthenticated] = true
	if err := session.Save(r, w); err != nil {
		s.log.Error("save session", "error", err)
		jsonError(w, "could not start session", http.StatusInternalServerError)
		return
	}
	metrics.AuthAttempts.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, s.cfg.AuthCookieName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.log.Error("clear session", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
