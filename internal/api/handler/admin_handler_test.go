package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

func TestAdminHandler_SetBlocked(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		setBlockedFn: func(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error) {
			if userID != "u1" || !blocked {
				t.Fatalf("unexpected args: %s %v", userID, blocked)
			}
			return &domain.PrincipalView{ID: userID, IsBlocked: true}, nil
		},
	}
	h := NewAdminHandler(stub)

	req := jsonRequest(http.MethodPatch, "/admin/users/u1/block", `{"blocked":true}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := h.SetBlocked(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"is_blocked":true`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAdminHandler_SetBlocked_FlagRequired(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAuthService{})

	req := jsonRequest(http.MethodPatch, "/admin/users/u1/block", `{}`)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("u1")

	assertHTTPError(t, h.SetBlocked(c), http.StatusBadRequest)
}

func TestAdminHandler_SetBlocked_UnknownUser(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		setBlockedFn: func(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	h := NewAdminHandler(stub)

	req := jsonRequest(http.MethodPatch, "/admin/users/nope/block", `{"blocked":false}`)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	assertKind(t, h.SetBlocked(c), domain.KindNotFound)
}
