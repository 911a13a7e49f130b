// Package auth contains the sign up, sign in and password recovery endpoints
package auth

import (
	"net/http"
	"time"

	"bitwise74/readstack/internal"

	"github.com/gin-gonic/gin"
)

const RefreshCookie = "refresh_token"

func sameSite(d *internal.Deps) http.SameSite {
	if d.Config.Production() {
		return http.SameSiteStrictMode
	}

	return http.SameSiteLaxMode
}

func setRefreshCookie(c *gin.Context, d *internal.Deps, token string) {
	c.SetSameSite(sameSite(d))
	c.SetCookie(RefreshCookie, token, int(d.Tokens.RefreshTTL()/time.Second), "/", "", d.Config.Production(), true)
}

func clearRefreshCookie(c *gin.Context, d *internal.Deps) {
	c.SetSameSite(sameSite(d))
	c.SetCookie(RefreshCookie, "", -1, "/", "", d.Config.Production(), true)
}
