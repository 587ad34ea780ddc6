package auth

import (
	"net/http"
	"time"
)

const SessionCookieName = "hearth_session"

// Cookies builds the session cookie. Secure is set in production only so
// local development over plain HTTP keeps working.
type Cookies struct {
	Secure bool
	now    func() time.Time
}

func NewCookies(secure bool) *Cookies {
	return &Cookies{Secure: secure, now: time.Now}
}

// Session returns a cookie carrying token that lives until expiresAt.
func (c *Cookies) Session(token string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(c.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Blank returns a cookie that clears the session on the client.
func (c *Cookies) Blank() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Token reads the session token from r, or "" when absent.
func Token(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
