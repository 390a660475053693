package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const (
	// RefreshCookieName is the cookie carrying the refresh token.
	RefreshCookieName = "refreshToken"
	// RefreshHeaderName is the header fallback for clients without cookies.
	RefreshHeaderName = "refreshToken"

	ctxIdentity     = "identity"
	ctxRefreshToken = "refresh_token"
	ctxRole         = "role"
)

// Auth validates the bearer access token and injects the identity into the
// context.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.NewError(domain.KindInvalidToken, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return domain.NewError(domain.KindInvalidToken, "invalid authorization header")
			}

			identity, err := tokens.VerifyAccessToken(parts[1])
			if err != nil {
				return err
			}

			setIdentity(c, identity)
			return next(c)
		}
	}
}

// RefreshIdentity verifies the refresh token taken from the cookie, or the
// refreshToken header when no cookie is sent. It is the only way the logout,
// current-user and refresh routes learn who is calling.
func RefreshIdentity(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := refreshTokenFrom(c)
			if raw == "" {
				return domain.NewError(domain.KindInvalidToken, "access denied")
			}

			identity, err := tokens.VerifyRefreshToken(raw)
			if err != nil {
				return err
			}

			setIdentity(c, identity)
			c.Set(ctxRefreshToken, raw)
			return next(c)
		}
	}
}

func refreshTokenFrom(c echo.Context) string {
	if cookie, err := c.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return c.Request().Header.Get(RefreshHeaderName)
}

func setIdentity(c echo.Context, identity domain.TokenPayload) {
	c.Set(ctxIdentity, identity)
	c.Set(ctxRole, identity.Role)
}

// Identity returns the verified caller set by Auth or RefreshIdentity.
func Identity(c echo.Context) (domain.TokenPayload, bool) {
	identity, ok := c.Get(ctxIdentity).(domain.TokenPayload)
	return identity, ok && identity.ID != ""
}

// RefreshToken returns the raw refresh token verified by RefreshIdentity.
func RefreshToken(c echo.Context) string {
	raw, _ := c.Get(ctxRefreshToken).(string)
	return raw
}
