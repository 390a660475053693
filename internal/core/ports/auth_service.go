package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	ProfilePic string
	AuthType   string
}

// AuthService is the auth orchestrator.
type AuthService interface {
	Login(ctx context.Context, email, password, role string) (*domain.LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*domain.PrincipalView, error)
	ForgetPassword(ctx context.Context, email string) (*domain.PrincipalView, error)
	ResetPassword(ctx context.Context, email, password, token string) error
	// Logout is idempotent and never fails: a missing token is a no-op and a
	// missing principal yields a nil view.
	Logout(ctx context.Context, refreshToken string, identity domain.TokenPayload) *domain.PrincipalView
	// RefreshAccessToken reports ok=false on any failure.
	RefreshAccessToken(ctx context.Context, refreshToken string) (accessToken string, ok bool)
	CurrentUser(ctx context.Context, identity domain.TokenPayload) (*domain.PrincipalView, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.PrincipalView, error)
}
