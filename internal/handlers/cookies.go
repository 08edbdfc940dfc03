package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/yudhapratama/learnhub/internal/auth"
)

// Cookie names the browser session rides on.
const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	oauthStateCookie   = "oauth_state"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	// Domain scopes the cookies; empty means host-only.
	Domain string
	// Secure marks the cookies HTTPS-only. On in production.
	Secure bool
	// AccessMaxAge and RefreshMaxAge bound cookie lifetimes and normally
	// track the token lifetimes.
	AccessMaxAge  int
	RefreshMaxAge int
}

// setSessionCookies writes both token cookies. HttpOnly and SameSite=Lax on
// both so scripts cannot read them and cross-site POSTs do not carry them.
func setSessionCookies(c *gin.Context, cfg CookieConfig, pair *iauth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, pair.AccessToken, cfg.AccessMaxAge, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, cfg.RefreshMaxAge, "/", cfg.Domain, cfg.Secure, true)
}

// clearSessionCookies expires both token cookies.
func clearSessionCookies(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", cfg.Domain, cfg.Secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", cfg.Domain, cfg.Secure, true)
}

func setStateCookie(c *gin.Context, cfg CookieConfig, state string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", cfg.Domain, cfg.Secure, true)
}

func clearStateCookie(c *gin.Context, cfg CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", cfg.Domain, cfg.Secure, true)
}
