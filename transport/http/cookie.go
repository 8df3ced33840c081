package http

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookie binds session tokens to an HTTP cookie
type SessionCookie struct {
	Name   string
	Secure bool // set in production so the cookie only travels over HTTPS
	MaxAge time.Duration
}

// Set writes the session cookie carrying token
func (sc SessionCookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sc.MaxAge / time.Second),
		Secure:   sc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear instructs the client to drop the session cookie (Max-Age=0)
func (sc SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   sc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token extracts the session token from the cookie, falling back to an
// Authorization: Bearer header for clients that cannot hold cookies
func (sc SessionCookie) Token(r *http.Request) string {
	if c, err := r.Cookie(sc.Name); err == nil && c.Value != "" {
		return c.Value
	}

	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}

	return ""
}
