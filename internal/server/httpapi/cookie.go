package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/todoauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h HandlerSet) setRefreshCookie(c *gin.Context, result *services.AuthResult) {
	maxAge := int(result.RefreshExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    result.RefreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  result.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h HandlerSet) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h HandlerSet) refreshCookie(c *gin.Context) string {
	v, err := c.Cookie(h.cfg.CookieName)
	if err != nil {
		return ""
	}
	return v
}
