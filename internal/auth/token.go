package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookie   = "access_token"
	RefreshCookie  = "refresh_token"
	LoggedInCookie = "logged_in"
)

// CookieOptions controls the security attributes of auth cookies.
type CookieOptions struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Secure {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

func (o CookieOptions) cookie(name, value string, ttl time.Duration, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   o.Secure,
		SameSite: o.sameSite(),
	}
}

// SetAuthCookies writes the HttpOnly token pair plus a script-readable
// logged_in marker.
func SetAuthCookies(w http.ResponseWriter, access, refresh string, o CookieOptions) {
	http.SetCookie(w, o.cookie(AccessCookie, access, o.AccessTTL, true))
	http.SetCookie(w, o.cookie(RefreshCookie, refresh, o.RefreshTTL, true))
	http.SetCookie(w, o.cookie(LoggedInCookie, "true", o.AccessTTL, false))
}

func SetAccessCookie(w http.ResponseWriter, access string, o CookieOptions) {
	http.SetCookie(w, o.cookie(AccessCookie, access, o.AccessTTL, true))
	http.SetCookie(w, o.cookie(LoggedInCookie, "true", o.AccessTTL, false))
}

func ClearAuthCookies(w http.ResponseWriter, o CookieOptions) {
	for _, name := range []string{AccessCookie, RefreshCookie, LoggedInCookie} {
		c := o.cookie(name, "", 0, name != LoggedInCookie)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func ExtractAccessToken(r *http.Request) string {
	// Cookie (preferred)
	if cookie, err := r.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	// Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

func ExtractRefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		return cookie.Value
	}
	return ""
}
