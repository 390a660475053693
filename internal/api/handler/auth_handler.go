package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/api/middleware"
	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
	"github.com/taskboard/taskboard-api/internal/infrastructure/realtime"
)

type AuthHandler struct {
	auth                 ports.AuthService
	otp                  ports.OTPService
	cookies              CookieConfig
	requireVerifiedEmail bool
	log                  zerolog.Logger
}

// AuthHandlerConfig holds the transport-level knobs of AuthHandler.
type AuthHandlerConfig struct {
	Cookies              CookieConfig
	RequireVerifiedEmail bool
}

func NewAuthHandler(auth ports.AuthService, otp ports.OTPService, cfg AuthHandlerConfig, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:                 auth,
		otp:                  otp,
		cookies:              cfg.Cookies,
		requireVerifiedEmail: cfg.RequireVerifiedEmail,
		log:                  log,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=72"`
	Role     string `json:"role"`
}

type registerRequest struct {
	Name       string `json:"name" validate:"max=100"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Password   string `json:"password" validate:"max=72"`
	ProfilePic string `json:"profilePic" validate:"omitempty,url"`
	AuthType   string `json:"authType" validate:"omitempty,oneof=local google"`
}

type forgetPasswordRequest struct {
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=72"`
	Token    string `json:"token"`
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// Login authenticates an admin or user and starts a session.
//
// @Summary      Login
// @Description  Returns an access token and sets the refreshToken cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, req.Role)
	metrics.LoginsTotal.WithLabelValues(roleLabel(req.Role), metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	setRefreshCookie(c, h.cookies, res.RefreshToken)
	return c.JSON(http.StatusOK, loginResponse{
		Success:     true,
		Message:     msgLoginSuccess,
		User:        res.User,
		AccessToken: res.AccessToken,
	})
}

// Register creates a user account for an email that passed OTP verification.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if h.requireVerifiedEmail && req.Email != "" {
		verified, err := h.otp.EmailVerified(ctx, req.Email)
		if err != nil {
			return err
		}
		if !verified {
			metrics.RegistrationsTotal.WithLabelValues(metrics.Result(domain.ErrEmailNotVerified)).Inc()
			return domain.ErrEmailNotVerified
		}
	}

	user, err := h.auth.Register(ctx, ports.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		ProfilePic: req.ProfilePic,
		AuthType:   req.AuthType,
	})
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	if h.requireVerifiedEmail {
		if err := h.otp.ConsumeVerification(ctx, user.Email); err != nil {
			h.log.Warn().Err(err).Str("principal_id", user.ID).Msg("could not consume email verification")
		}
	}
	h.publish(ctx, domain.Event{Type: domain.EventUserRegistered, SubjectID: user.ID, Payload: user})

	return c.JSON(http.StatusCreated, userResponse{
		Success: true,
		Message: msgRegistrationSuccess,
		User:    user,
	})
}

// ForgetPassword mails a single-use reset link.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgetPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/forget-password [post]
func (h *AuthHandler) ForgetPassword(c echo.Context) error {
	var req forgetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	_, err := h.auth.ForgetPassword(c.Request().Context(), req.Email)
	metrics.PasswordResetsTotal.WithLabelValues("requested", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgResetEmailSent})
}

// ResetPassword sets a new password using the mailed token.
//
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, new password and reset token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Password, req.Token)
	metrics.PasswordResetsTotal.WithLabelValues("completed", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgResetSuccess})
}

// Logout revokes the presented refresh token and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Param        refreshToken  header    string  false  "Refresh token when no cookie is sent"
// @Success      200           {object}  messageResponse
// @Failure      401           {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	h.auth.Logout(c.Request().Context(), middleware.RefreshToken(c), identity)
	ClearAuthCookies(c, h.cookies)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: msgLoggedOut})
}

// CurrentUser returns the principal owning the refresh token.
//
// @Summary      Current user from refresh token
// @Tags         auth
// @Produce      json
// @Param        refreshToken  header    string  false  "Refresh token when no cookie is sent"
// @Success      200           {object}  userResponse
// @Failure      401           {object}  ErrorResponse
// @Failure      404           {object}  ErrorResponse
// @Router       /auth/current-user [post]
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	return h.currentUser(c)
}

// Me returns the principal owning the access token.
//
// @Summary      Current user from access token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	return h.currentUser(c)
}

func (h *AuthHandler) currentUser(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.auth.CurrentUser(c.Request().Context(), identity)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return c.JSON(http.StatusOK, userResponse{Success: true, Message: msgCurrentUser, User: user})
}

// RefreshToken mints a new access token from the refresh token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Produce      json
// @Param        refreshToken  header    string  false  "Refresh token when no cookie is sent"
// @Success      200           {object}  tokenResponse
// @Failure      401           {object}  ErrorResponse
// @Router       /auth/refresh-token [get]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	accessToken, ok := h.auth.RefreshAccessToken(c.Request().Context(), middleware.RefreshToken(c))
	if !ok {
		metrics.TokenRefreshTotal.WithLabelValues(string(domain.KindInvalidToken)).Inc()
		return domain.NewError(domain.KindInvalidToken, "invalid or expired refresh token")
	}
	metrics.TokenRefreshTotal.WithLabelValues(metrics.Result(nil)).Inc()

	return c.JSON(http.StatusOK, tokenResponse{
		Success:     true,
		Message:     msgTokenCreated,
		AccessToken: accessToken,
	})
}

// publish emits a live-update event when a publisher is installed. Failures
// never fail the request.
func (h *AuthHandler) publish(ctx context.Context, event domain.Event) {
	pub, ok := realtime.Current()
	if !ok {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, event); err != nil {
		h.log.Warn().Err(err).Str("event", event.Type).Msg("live update not published")
	}
}

func roleLabel(role string) string {
	switch role {
	case domain.RoleAdmin, domain.RoleUser:
		return role
	default:
		return "invalid"
	}
}
