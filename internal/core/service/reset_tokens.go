package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

const (
	DefaultResetTokenTTL = time.Hour
	resetTokenBytes      = 32
)

// ResetTokens issues and validates single-use password-reset tokens. Only
// the SHA-256 of a token is ever persisted.
type ResetTokens struct {
	ttl time.Duration
}

func NewResetTokens(ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokens{ttl: ttl}
}

// TTL is the validity window of an issued token.
func (r *ResetTokens) TTL() time.Duration { return r.ttl }

// Issue returns a fresh token for the email link, the hash to store and the
// absolute expiry.
func (r *ResetTokens) Issue(now time.Time) (token, hash string, expiry time.Time, err error) {
	var raw [resetTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", time.Time{}, err
	}
	token = base64.RawURLEncoding.EncodeToString(raw[:])
	return token, HashResetToken(token), now.Add(r.ttl), nil
}

// Validate checks supplied against the reset state held on p.
func (r *ResetTokens) Validate(p *domain.Principal, supplied string, now time.Time) error {
	if p.ResetTokenHash == "" || supplied == "" {
		return domain.ErrInvalidResetToken
	}
	got := HashResetToken(supplied)
	if subtle.ConstantTimeCompare([]byte(got), []byte(p.ResetTokenHash)) != 1 {
		return domain.ErrInvalidResetToken
	}
	if p.ResetTokenExpiry == nil || now.After(*p.ResetTokenExpiry) {
		return domain.ErrResetTokenExpired
	}
	return nil
}

// HashResetToken is the at-rest form of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
