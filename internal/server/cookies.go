package server

import (
	"net/http"
	"time"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "intake_session"
	// CookieMaxAge is how long an intake session cookie stays valid
	CookieMaxAge = 2 * time.Hour
	// SessionHeader carries the session id for clients without cookies
	SessionHeader = "X-Session-Id"
)

// SetSessionCookie sets an HTTP-only session cookie.
func SetSessionCookie(w http.ResponseWriter, sessionID string, secure bool) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	http.SetCookie(w, cookie)
}

// GetSessionCookie reads the session ID from the cookie
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
