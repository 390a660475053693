package domain

import "errors"

// ErrorKind classifies an operational error. The transport layer maps each
// kind to a status code; the core never deals in status codes directly.
type ErrorKind string

const (
	KindMissingFields      ErrorKind = "missing_fields"
	KindBadRequest         ErrorKind = "bad_request"
	KindInvalidRole        ErrorKind = "invalid_role"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindConflict           ErrorKind = "conflict"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidResetToken  ErrorKind = "invalid_reset_token"
	KindResetTokenExpired  ErrorKind = "reset_token_expired"
	KindRateLimited        ErrorKind = "rate_limited"
	KindInvalidOTP         ErrorKind = "invalid_otp"
	KindOTPExpired         ErrorKind = "otp_expired"
	KindInvalidToken       ErrorKind = "invalid_token"
	KindTokenExpired       ErrorKind = "token_expired"
	KindForbidden          ErrorKind = "forbidden"
	KindInternal           ErrorKind = "internal"
)

// Error is the operational error raised by every core operation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so that sentinels sharing a kind
// (user not found vs OTP not found) stay distinguishable.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// NewError builds an operational error with a caller-supplied message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Internal wraps an unexpected failure so that raw storage errors never
// reach clients. Operational errors pass through untouched.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf reports the classification of err; anything that is not an
// operational error is internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrMissingFields      = NewError(KindMissingFields, "required fields are missing")
	ErrEmailRequired      = NewError(KindBadRequest, "email is required")
	ErrPasswordTooLong    = NewError(KindBadRequest, "password must be at most 72 bytes")
	ErrInvalidRole        = NewError(KindInvalidRole, "invalid role specified")
	ErrInvalidCredentials = NewError(KindInvalidCredentials, "invalid email or password")
	ErrUserExists         = NewError(KindConflict, "user already exists")
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrAccountBlocked     = NewError(KindForbidden, "account is blocked")
	ErrEmailNotVerified   = NewError(KindForbidden, "email is not verified")
	ErrForbidden          = NewError(KindForbidden, "access forbidden")

	ErrInvalidResetToken = NewError(KindInvalidResetToken, "invalid reset token")
	ErrResetTokenExpired = NewError(KindResetTokenExpired, "reset token expired")

	ErrOTPNotFound         = NewError(KindNotFound, "otp not found")
	ErrInvalidOTP          = NewError(KindInvalidOTP, "invalid otp")
	ErrOTPExpired          = NewError(KindOTPExpired, "otp expired")
	ErrOTPResendLimit      = NewError(KindRateLimited, "maximum otp resend limit reached")
	ErrOTPAttemptsExceeded = NewError(KindRateLimited, "too many otp verification attempts")

	ErrInvalidToken = NewError(KindInvalidToken, "invalid token")
	ErrTokenExpired = NewError(KindTokenExpired, "token expired")
)
