package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// OTPService issues and verifies email one-time codes.
type OTPService interface {
	SendOTP(ctx context.Context, email string) (*domain.OTP, error)
	VerifyOTP(ctx context.Context, email, code string) (bool, error)
	ResendOTP(ctx context.Context, email string) (*domain.OTP, error)

	EmailVerified(ctx context.Context, email string) (bool, error)
	ConsumeVerification(ctx context.Context, email string) error
}
