package security

import (
	"net/http"
	"time"
)

const (
	SessionCookieName = "newslink.session_token"
	securePrefix      = "__Secure-"
)

// SetSessionCookie writes the session cookie. With secure=true (every
// non-dev environment) the cookie is __Secure- prefixed and SameSite=None so
// the web app on another origin can send it. Browsers reject SameSite=None
// without Secure, so plain-HTTP dev falls back to Lax.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, sessionCookie(token, int(ttl.Seconds()), secure))
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie("", -1, secure))
}

// ReadSessionCookie prefers the secure cookie and falls back to the dev name.
func ReadSessionCookie(r *http.Request) (string, error) {
	if c, err := r.Cookie(securePrefix + SessionCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if secure {
		c.Name = securePrefix + SessionCookieName
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
