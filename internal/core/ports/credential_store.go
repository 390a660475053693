package ports

import (
	"context"
	"time"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// PrincipalRepository persists principals of one class (users or admins).
type PrincipalRepository interface {
	Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error)
	// FindByEmail and FindByID return domain.ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
}

// SessionStore tracks the set of live refresh tokens of a principal. Adds and
// removals must be atomic at the store level; concurrent logins and logouts
// for the same principal rely on it.
type SessionStore interface {
	// AddRefreshToken appends token to the set and stamps the last login.
	AddRefreshToken(ctx context.Context, id, token string, at time.Time) error
	// RemoveRefreshToken pulls token from the set and returns the updated
	// principal, or nil when the principal does not exist.
	RemoveRefreshToken(ctx context.Context, id, token string) (*domain.Principal, error)
}

// ResetTokenStore holds the password-reset fields of a principal.
type ResetTokenStore interface {
	SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error
	// CompletePasswordReset replaces the password hash and clears both reset
	// fields, provided the stored token hash still equals tokenHash. It
	// returns domain.ErrInvalidResetToken when the token was already used.
	CompletePasswordReset(ctx context.Context, id, tokenHash, passwordHash string) error
}

// CredentialStore is the full capability set the auth core needs from one
// principal class.
type CredentialStore interface {
	PrincipalRepository
	SessionStore
	ResetTokenStore
}
