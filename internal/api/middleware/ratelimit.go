package middleware

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/labstack/echo/v4"
)

// RateLimit throttles a route group per client IP. The limiter answers
// rejected requests itself with 429 and a JSON body.
//
// Clients are keyed on the socket peer. X-Real-IP is only honoured when
// trustProxy is set, i.e. when a reverse proxy overwrites that header.
func RateLimit(perSecond float64, burst int, trustProxy bool) echo.MiddlewareFunc {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	lmt := tollbooth.NewLimiter(perSecond, nil)
	lmt.SetBurst(burst)
	lmt.SetIPLookups(ipLookups(trustProxy))
	lmt.SetMessageContentType(echo.MIMEApplicationJSONCharsetUTF8)
	lmt.SetMessage(`{"success":false,"error":"too many requests, try again later"}`)
	lmt.SetStatusCode(http.StatusTooManyRequests)

	return limiterMiddleware(lmt)
}

func limiterMiddleware(lmt *limiter.Limiter) echo.MiddlewareFunc {
	return echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	})
}

func ipLookups(trustProxy bool) []string {
	if trustProxy {
		return []string{"X-Real-IP", "RemoteAddr"}
	}
	return []string{"RemoteAddr"}
}
