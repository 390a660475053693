package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/service"
)

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

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := newTokens(t)
	signed, err := tokens.GenerateAccessToken(domain.TokenPayload{ID: "u1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		identity, ok := Identity(c)
		if !ok || identity.ID != "u1" || identity.Role != domain.RoleAdmin {
			t.Fatalf("identity not set: %+v", identity)
		}
		if c.Get("role") != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := newTokens(t)
	refresh, _ := tokens.GenerateRefreshToken(domain.TokenPayload{ID: "u1", Role: domain.RoleUser})

	cases := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Token abc",
		"empty bearer":      "Bearer ",
		"garbage":           "Bearer not-a-token",
		"refresh as access": "Bearer " + refresh,
	}

	for name, header := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		err := Auth(tokens)(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", name)
			return nil
		})(c)
		if domain.KindOf(err) != domain.KindInvalidToken {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}
}

func TestRefreshIdentity_FromCookie(t *testing.T) {
	tokens := newTokens(t)
	refresh, _ := tokens.GenerateRefreshToken(domain.TokenPayload{ID: "u1", Role: domain.RoleUser})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refresh})
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := RefreshIdentity(tokens)(func(c echo.Context) error {
		called = true
		identity, ok := Identity(c)
		if !ok || identity.ID != "u1" {
			t.Fatalf("identity not set: %+v", identity)
		}
		if RefreshToken(c) != refresh {
			t.Fatalf("raw refresh token not set")
		}
		return nil
	})(c)
	if err != nil || !called {
		t.Fatalf("expected next to run, got %v", err)
	}
}

func TestRefreshIdentity_FromHeader(t *testing.T) {
	tokens := newTokens(t)
	refresh, _ := tokens.GenerateRefreshToken(domain.TokenPayload{ID: "u2", Role: domain.RoleAdmin})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/refresh-token", nil)
	req.Header.Set(RefreshHeaderName, refresh)
	c := e.NewContext(req, httptest.NewRecorder())

	err := RefreshIdentity(tokens)(func(c echo.Context) error {
		if identity, _ := Identity(c); identity.ID != "u2" {
			t.Fatalf("unexpected identity %+v", identity)
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRefreshIdentity_Rejects(t *testing.T) {
	tokens := newTokens(t)
	access, _ := tokens.GenerateAccessToken(domain.TokenPayload{ID: "u1", Role: domain.RoleUser})

	for name, value := range map[string]string{
		"missing":           "",
		"access as refresh": access,
		"garbage":           "abc.def.ghi",
	} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		if value != "" {
			req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: value})
		}
		c := e.NewContext(req, httptest.NewRecorder())

		err := RefreshIdentity(tokens)(func(c echo.Context) error {
			t.Fatalf("%s: should not reach next", name)
			return nil
		})(c)
		if !errors.Is(err, domain.NewError(domain.KindInvalidToken, "")) {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}
}
