package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultVerifiedEmailTTL = 15 * time.Minute

// VerifiedEmails implements ports.VerificationLedger. An entry exists for an
// email between a successful OTP verification and either registration or
// expiry.
// Key format: otp:verified:<email>
type VerifiedEmails struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewVerifiedEmails(client redis.UniversalClient, ttl time.Duration) *VerifiedEmails {
	if ttl <= 0 {
		ttl = DefaultVerifiedEmailTTL
	}
	return &VerifiedEmails{client: client, ttl: ttl}
}

func (v *VerifiedEmails) MarkVerified(ctx context.Context, email string) error {
	if err := v.client.Set(ctx, v.key(email), "1", v.ttl).Err(); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

func (v *VerifiedEmails) IsVerified(ctx context.Context, email string) (bool, error) {
	n, err := v.client.Exists(ctx, v.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("verified check: %w", err)
	}
	return n > 0, nil
}

func (v *VerifiedEmails) Consume(ctx context.Context, email string) error {
	if err := v.client.Del(ctx, v.key(email)).Err(); err != nil {
		return fmt.Errorf("consume verified: %w", err)
	}
	return nil
}

func (v *VerifiedEmails) key(email string) string {
	return "otp:verified:" + email
}
