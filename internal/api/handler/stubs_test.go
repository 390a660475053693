package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
	"github.com/taskboard/taskboard-api/internal/core/service"
)

type stubAuthService struct {
	loginFn          func(ctx context.Context, email, password, role string) (*domain.LoginResult, error)
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.PrincipalView, error)
	forgetPasswordFn func(ctx context.Context, email string) (*domain.PrincipalView, error)
	resetPasswordFn  func(ctx context.Context, email, password, token string) error
	logoutFn         func(ctx context.Context, refreshToken string, identity domain.TokenPayload) *domain.PrincipalView
	refreshFn        func(ctx context.Context, refreshToken string) (string, bool)
	currentUserFn    func(ctx context.Context, identity domain.TokenPayload) (*domain.PrincipalView, error)
	setBlockedFn     func(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password, role string) (*domain.LoginResult, error) {
	return s.loginFn(ctx, email, password, role)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.PrincipalView, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) ForgetPassword(ctx context.Context, email string) (*domain.PrincipalView, error) {
	return s.forgetPasswordFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, email, password, token string) error {
	return s.resetPasswordFn(ctx, email, password, token)
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string, identity domain.TokenPayload) *domain.PrincipalView {
	return s.logoutFn(ctx, refreshToken, identity)
}

func (s *stubAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) CurrentUser(ctx context.Context, identity domain.TokenPayload) (*domain.PrincipalView, error) {
	return s.currentUserFn(ctx, identity)
}

func (s *stubAuthService) SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error) {
	return s.setBlockedFn(ctx, userID, blocked)
}

type stubOTPService struct {
	sendFn     func(ctx context.Context, email string) (*domain.OTP, error)
	verifyFn   func(ctx context.Context, email, code string) (bool, error)
	resendFn   func(ctx context.Context, email string) (*domain.OTP, error)
	verifiedFn func(ctx context.Context, email string) (bool, error)
	consumed   []string
}

func (s *stubOTPService) SendOTP(ctx context.Context, email string) (*domain.OTP, error) {
	return s.sendFn(ctx, email)
}

func (s *stubOTPService) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	return s.verifyFn(ctx, email, code)
}

func (s *stubOTPService) ResendOTP(ctx context.Context, email string) (*domain.OTP, error) {
	return s.resendFn(ctx, email)
}

func (s *stubOTPService) EmailVerified(ctx context.Context, email string) (bool, error) {
	return s.verifiedFn(ctx, email)
}

func (s *stubOTPService) ConsumeVerification(_ context.Context, email string) error {
	s.consumed = append(s.consumed, email)
	return nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func newTokens(t *testing.T) *service.JWTTokenService {
	t.Helper()
	tokens, err := service.NewJWTTokenService(service.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, got, err)
	}
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
}

var nopLogger = zerolog.Nop()
