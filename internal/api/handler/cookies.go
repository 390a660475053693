package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/api/middleware"
)

const accessCookieName = "accessToken"

// CookieConfig controls the attributes of the refresh-token cookie.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

func (cfg CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	sameSite := cfg.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite,
	}
}

func setRefreshCookie(c echo.Context, cfg CookieConfig, token string) {
	c.SetCookie(cfg.cookie(middleware.RefreshCookieName, token, int(cfg.MaxAge.Seconds())))
}

// ClearAuthCookies expires both auth cookies on the client.
func ClearAuthCookies(c echo.Context, cfg CookieConfig) {
	c.SetCookie(cfg.cookie(middleware.RefreshCookieName, "", -1))
	c.SetCookie(cfg.cookie(accessCookieName, "", -1))
}
