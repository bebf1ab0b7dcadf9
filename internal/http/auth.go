package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const sessionCookieName = "harambee_session"

// mintSessionToken creates a signed session token valid until now+ttl.
// Format: "<expiry-unix>.<hex hmac-sha256(secret, "session:"+expiry)>".
func mintSessionToken(secret string, ttl time.Duration, now time.Time) string {
	expiry := strconv.FormatInt(now.Add(ttl).Unix(), 10)
	return expiry + "." + signSession(secret, expiry)
}

// verifySessionToken checks the signature and expiry of a session token.
func verifySessionToken(secret, token string, now time.Time) bool {
	expiry, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	expiresAt, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil || now.Unix() >= expiresAt {
		return false
	}
	expected := signSession(secret, expiry)
	return hmac.Equal([]byte(sig), []byte(expected))
}

func signSession(secret, expiry string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("session:" + expiry))
	return hex.EncodeToString(mac.Sum(nil))
}

// passwordMatches compares the submitted password against the configured one
// without leaking length through comparison timing.
func passwordMatches(secret, configured, submitted string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(configured))
	want := mac.Sum(nil)

	mac = hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(submitted))
	got := mac.Sum(nil)

	return hmac.Equal(want, got)
}

func (s *Server) isAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	return verifySessionToken(s.sessionSecret, cookie.Value, time.Now())
}

// requireAuth gates a handler behind the session cookie. Unauthenticated
// browsers are sent to the login page; non-GET requests get a 401 so form
// posts fail loudly instead of silently redirecting.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.isAuthenticated(r) {
			if r.Method == http.MethodGet {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`<div class="error">Session expired. Please log in again.</div>`))
			return
		}
		next(w, r)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.renderLogin(w, r, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			s.renderLogin(w, r, "Invalid request.")
			return
		}
		password := r.Form.Get("password")
		if !passwordMatches(s.sessionSecret, s.adminPassword, password) {
			slog.WarnContext(r.Context(), "Failed login attempt")
			w.WriteHeader(http.StatusUnauthorized)
			s.renderLogin(w, r, "Wrong password.")
			return
		}
		token := mintSessionToken(s.sessionSecret, s.sessionTTL, time.Now())
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(s.sessionTTL / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		slog.InfoContext(r.Context(), "Admin logged in")
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string) {
	if s.templates == nil {
		_, _ = w.Write([]byte("<h1>Login</h1>"))
		return
	}
	data := struct{ Error string }{Error: errMsg}
	if err := s.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Login template execution failed", "error", err)
	}
}
