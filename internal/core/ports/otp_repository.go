package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// OTPRepository stores one-time codes. Records are only ever inserted, never
// overwritten; expired ones are reaped by the store's retention policy.
type OTPRepository interface {
	Create(ctx context.Context, otp *domain.OTP) (*domain.OTP, error)
	// Latest returns the most recently created record for email, or
	// domain.ErrOTPNotFound.
	Latest(ctx context.Context, email string) (*domain.OTP, error)
	IncrementAttempts(ctx context.Context, id string) error
	// Consume deletes the record with the given id and reports whether this
	// call removed it. Of several concurrent callers at most one sees true.
	Consume(ctx context.Context, id string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// VerificationLedger remembers which emails passed OTP verification so the
// registration flow can refuse unverified addresses.
type VerificationLedger interface {
	MarkVerified(ctx context.Context, email string) error
	IsVerified(ctx context.Context, email string) (bool, error)
	Consume(ctx context.Context, email string) error
}
