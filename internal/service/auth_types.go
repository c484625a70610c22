package service

import (
	"context"
	"time"

	"marketauth/internal/entity"

	"golang.org/x/crypto/bcrypt"
)

// AuthConfig is injected at construction; nothing in the service reads
// ambient environment state.
type AuthConfig struct {
	OTPTTL          time.Duration
	ResetOTPTTL     time.Duration
	ResetTokenTTL   time.Duration
	SessionTokenTTL time.Duration
	BcryptCost      int
}

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, name string, otp string) error
	SendPasswordResetEmail(ctx context.Context, email string, name string, otp string) error
	SendPasswordChangedEmail(ctx context.Context, email string, name string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type SessionTokenIssuer interface {
	IssueSessionToken(principal *entity.Principal, typ entity.PrincipalType) (string, time.Duration, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
