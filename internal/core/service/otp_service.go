package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const (
	DefaultOTPDigits      = 4
	DefaultOTPTTL         = time.Minute
	DefaultOTPMaxResends  = 3
	DefaultOTPMaxAttempts = 5
)

// OTPConfig tunes the OTP engine. Zero values fall back to the defaults.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxResends  int
	MaxAttempts int
}

// OTPService implements ports.OTPService. Every send or resend inserts a new
// record; verification always targets the newest one, so concurrent resends
// resolve as last-write-wins at verification time.
type OTPService struct {
	repo   ports.OTPRepository
	ledger ports.VerificationLedger
	mailer ports.Mailer
	cfg    OTPConfig
	log    zerolog.Logger
	now    func() time.Time
	rand   io.Reader
}

func NewOTPService(
	repo ports.OTPRepository,
	ledger ports.VerificationLedger,
	mailer ports.Mailer,
	cfg OTPConfig,
	log zerolog.Logger,
) *OTPService {
	if cfg.Digits < 4 || cfg.Digits > 6 {
		cfg.Digits = DefaultOTPDigits
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultOTPTTL
	}
	if cfg.MaxResends <= 0 {
		cfg.MaxResends = DefaultOTPMaxResends
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultOTPMaxAttempts
	}
	return &OTPService{
		repo:   repo,
		ledger: ledger,
		mailer: mailer,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
		rand:   rand.Reader,
	}
}

// SendOTP creates a fresh code for email and mails it. A delivery failure is
// logged and does not undo the created record.
func (s *OTPService) SendOTP(ctx context.Context, email string) (*domain.OTP, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrMissingFields
	}
	return s.issue(ctx, email, 0, nil)
}

// VerifyOTP checks code against the newest record for email. The matched
// record is consumed before the email is marked verified, so a code verifies
// at most once even under concurrent requests.
func (s *OTPService) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return false, domain.ErrMissingFields
	}

	rec, err := s.repo.Latest(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return false, err
		}
		return false, domain.Internal(fmt.Errorf("verify otp: %w", err))
	}

	if rec.Attempts >= s.cfg.MaxAttempts {
		return false, domain.ErrOTPAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		if err := s.repo.IncrementAttempts(ctx, rec.ID); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to record otp attempt")
		}
		return false, domain.ErrInvalidOTP
	}

	if rec.Expired(s.now()) {
		return false, domain.ErrOTPExpired
	}

	consumed, err := s.repo.Consume(ctx, rec.ID)
	if err != nil {
		return false, domain.Internal(fmt.Errorf("verify otp: consume: %w", err))
	}
	if !consumed {
		return false, domain.ErrOTPNotFound
	}

	// Superseded records would otherwise become the newest one.
	if err := s.repo.DeleteByEmail(ctx, email); err != nil {
		return false, domain.Internal(fmt.Errorf("verify otp: clear superseded: %w", err))
	}
	if err := s.ledger.MarkVerified(ctx, email); err != nil {
		return false, domain.Internal(fmt.Errorf("verify otp: mark verified: %w", err))
	}

	s.log.Info().Str("email", email).Msg("otp verified")
	return true, nil
}

// ResendOTP issues a new code carrying the resend counter of the newest
// record plus one, refusing once that counter reached the cap.
func (s *OTPService) ResendOTP(ctx context.Context, email string) (*domain.OTP, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.ErrMissingFields
	}

	count := 0
	latest, err := s.repo.Latest(ctx, email)
	switch {
	case err == nil:
		if latest.ResendCount >= s.cfg.MaxResends {
			return nil, domain.ErrOTPResendLimit
		}
		count = latest.ResendCount + 1
	case errors.Is(err, domain.ErrOTPNotFound):
	default:
		return nil, domain.Internal(fmt.Errorf("resend otp: %w", err))
	}

	now := s.now().UTC()
	return s.issue(ctx, email, count, &now)
}

func (s *OTPService) EmailVerified(ctx context.Context, email string) (bool, error) {
	ok, err := s.ledger.IsVerified(ctx, normalizeEmail(email))
	if err != nil {
		return false, domain.Internal(fmt.Errorf("check verified email: %w", err))
	}
	return ok, nil
}

func (s *OTPService) ConsumeVerification(ctx context.Context, email string) error {
	if err := s.ledger.Consume(ctx, normalizeEmail(email)); err != nil {
		return domain.Internal(fmt.Errorf("consume verified email: %w", err))
	}
	return nil
}

func (s *OTPService) issue(ctx context.Context, email string, resendCount int, lastResend *time.Time) (*domain.OTP, error) {
	code, err := s.generateCode()
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("generate otp: %w", err))
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.OTP{
		Email:        email,
		Code:         code,
		ExpiresAt:    now.Add(s.cfg.TTL),
		ResendCount:  resendCount,
		LastResendAt: lastResend,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, domain.Internal(fmt.Errorf("create otp: %w", err))
	}

	if err := s.mailer.SendOTP(ctx, email, created.Code, s.cfg.TTL); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("otp email not delivered")
	}

	s.log.Info().
		Str("email", email).
		Int("resend_count", created.ResendCount).
		Msg("otp issued")

	return created, nil
}

// generateCode draws a code uniformly from [10^(d-1), 10^d).
func (s *OTPService) generateCode() (string, error) {
	low := int64(1)
	for i := 1; i < s.cfg.Digits; i++ {
		low *= 10
	}
	n, err := rand.Int(s.rand, big.NewInt(9*low))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(low+n.Int64(), 10), nil
}
