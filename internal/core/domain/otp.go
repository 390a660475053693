package domain

import "time"

// OTP is a one-time code proving control of an email address. Several
// records may exist for one email; only the newest one is ever verified.
type OTP struct {
	ID           string
	Email        string
	Code         string
	ExpiresAt    time.Time
	Attempts     int
	ResendCount  int
	LastResendAt *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the code is past its absolute expiration instant.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
