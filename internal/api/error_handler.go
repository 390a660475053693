package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/handler"
	"github.com/taskboard/taskboard-api/internal/core/domain"
)

var kindStatus = map[domain.ErrorKind]int{
	domain.KindMissingFields:      http.StatusBadRequest,
	domain.KindBadRequest:         http.StatusBadRequest,
	domain.KindInvalidRole:        http.StatusBadRequest,
	domain.KindInvalidOTP:         http.StatusBadRequest,
	domain.KindOTPExpired:         http.StatusBadRequest,
	domain.KindInvalidCredentials: http.StatusUnauthorized,
	domain.KindInvalidResetToken:  http.StatusUnauthorized,
	domain.KindResetTokenExpired:  http.StatusUnauthorized,
	domain.KindInvalidToken:       http.StatusUnauthorized,
	domain.KindTokenExpired:       http.StatusUnauthorized,
	domain.KindForbidden:          http.StatusForbidden,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindConflict:           http.StatusConflict,
	domain.KindRateLimited:        http.StatusTooManyRequests,
	domain.KindInternal:           http.StatusInternalServerError,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - maps operational error kinds to HTTP status codes,
//   - logs unexpected errors without leaking details to the client,
//   - clears the auth cookies whenever the caller's token was rejected,
//   - renders {"success": false, "error": "<message>"}.
func NewHTTPErrorHandler(cookies handler.CookieConfig, log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if code == http.StatusUnauthorized && isTokenError(err) {
			handler.ClearAuthCookies(c, cookies)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, handler.ErrorResponse{Success: false, Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		if code, ok := kindStatus[de.Kind]; ok {
			return code, de.Message
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// isTokenError reports whether err means the presented token is unusable,
// as opposed to wrong credentials on a login form.
func isTokenError(err error) bool {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code == http.StatusUnauthorized
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidToken, domain.KindTokenExpired:
		return true
	}
	return false
}
