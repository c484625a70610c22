package service

import (
	"errors"
	"fmt"

	"marketauth/internal/entity"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidEmail       = errors.New("please provide a valid email")
	ErrWeakPassword       = errors.New("password validation failed")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrNotFound           = errors.New("no account found with this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrNoPendingToken     = errors.New("no verification code found")
	ErrCodeMismatch       = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code has expired")
	ErrInvalidResetReq    = errors.New("invalid reset request")
	ErrInvalidOrExpired   = errors.New("invalid or expired code")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// VerificationRequiredError fails a login on an unverified account and
// carries what the client needs to route to the verify screen.
type VerificationRequiredError struct {
	Email         string
	PrincipalType entity.PrincipalType
	CodeResent    bool
}

func (e *VerificationRequiredError) Error() string {
	if e.CodeResent {
		return "please verify your email before logging in; a new verification code has been sent"
	}
	return "please verify your email before logging in"
}

func weakPassword(reason string) error {
	return fmt.Errorf("%w: %s", ErrWeakPassword, reason)
}
