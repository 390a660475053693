package ports

import "github.com/taskboard/taskboard-api/internal/core/domain"

// TokenService signs and verifies access and refresh tokens. It consults no
// revocation state; that lives in the SessionStore.
type TokenService interface {
	GenerateAccessToken(payload domain.TokenPayload) (string, error)
	GenerateRefreshToken(payload domain.TokenPayload) (string, error)
	// Verify* return domain.ErrTokenExpired or domain.ErrInvalidToken.
	VerifyAccessToken(token string) (domain.TokenPayload, error)
	VerifyRefreshToken(token string) (domain.TokenPayload, error)
}
