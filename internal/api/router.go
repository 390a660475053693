package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskboard/taskboard-api/docs"
	"github.com/taskboard/taskboard-api/internal/api/handler"
	"github.com/taskboard/taskboard-api/internal/api/middleware"
	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. The router never constructs
// storage or services itself.
type Deps struct {
	Auth   ports.AuthService
	OTP    ports.OTPService
	Tokens ports.TokenService
	Health map[string]handler.Pinger

	Cookies              handler.CookieConfig
	RequireVerifiedEmail bool
	CORSOrigins          []string
	RateLimitPerSecond   float64
	RateLimitBurst       int
	TrustProxy           bool

	// Registry receives the HTTP request metrics. A fresh one is used when nil.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Cookies, d.Log)

	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.RefreshHeaderName,
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.OTP, handler.AuthHandlerConfig{
		Cookies:              d.Cookies,
		RequireVerifiedEmail: d.RequireVerifiedEmail,
	}, d.Log)
	otpHandler := handler.NewOTPHandler(d.OTP)
	adminHandler := handler.NewAdminHandler(d.Auth)

	throttle := middleware.RateLimit(d.RateLimitPerSecond, d.RateLimitBurst, d.TrustProxy)
	requireAccess := middleware.Auth(d.Tokens)
	requireRefresh := middleware.RefreshIdentity(d.Tokens)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/send-otp", otpHandler.SendOTP, throttle)
	auth.POST("/verify-otp", otpHandler.VerifyOTP)
	auth.POST("/resend-otp", otpHandler.ResendOTP, throttle)
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/forget-password", authHandler.ForgetPassword, throttle)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout, requireRefresh)
	auth.POST("/current-user", authHandler.CurrentUser, requireRefresh)
	auth.GET("/refresh-token", authHandler.RefreshToken, requireRefresh)
	auth.GET("/me", authHandler.Me, requireAccess)

	// --- Admin routes ---
	admin := e.Group("/admin", requireAccess, middleware.RBAC(domain.RoleAdmin))
	admin.PATCH("/users/:id/block", adminHandler.SetBlocked)

	// --- Ops (no auth required) ---
	healthHandler := handler.NewHealthHandler(d.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, registry},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
