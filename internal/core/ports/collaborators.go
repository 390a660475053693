package ports

import (
	"context"
	"time"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// Mailer delivers the emails the auth core sends.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, link string, ttl time.Duration) error
}

// PasswordHasher hashes and compares passwords. Compare must do the same
// amount of work whether or not the password matches.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// EventPublisher broadcasts live-update events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
