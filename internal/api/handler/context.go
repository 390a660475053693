package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/api/middleware"
	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the auth middlewares and
// fails fast when none is present, which means the route was wired without
// one of them.
func ctxIdentity(c echo.Context) (domain.TokenPayload, error) {
	identity, ok := middleware.Identity(c)
	if !ok || identity.Role == "" {
		return domain.TokenPayload{}, domain.NewError(domain.KindInvalidToken, "missing authentication claims")
	}
	return identity, nil
}
