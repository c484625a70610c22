package service

import (
	"time"

	"marketauth/internal/entity"
)

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Country  string
	State    string
	Address  string
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress *string
}

type SignupResult struct {
	Email     string
	EmailSent bool
}

type VerifyEmailResult struct {
	AlreadyVerified bool
}

type ResendResult struct {
	Email     string
	EmailSent bool
}

// PrincipalProfile is the sanitized projection returned to clients; hash
// and token fields never leave the service.
type PrincipalProfile struct {
	ID         string
	Name       string
	Email      string
	Role       entity.PrincipalType
	Verified   bool
	Status     entity.LegacyStatus
	VerifiedAt *time.Time
	LastLogin  *time.Time
}

type LoginResult struct {
	Token     string
	ExpiresIn int64
	Principal PrincipalProfile
}

type VerifyResetOTPResult struct {
	ResetToken string
	ExpiresIn  int64
}

type ResetPasswordResult struct {
	EmailSent bool
}

func profileOf(p *entity.Principal, typ entity.PrincipalType) PrincipalProfile {
	return PrincipalProfile{
		ID:         p.ID.String(),
		Name:       p.Name,
		Email:      p.Email,
		Role:       typ,
		Verified:   p.Verified(),
		Status:     p.Status,
		VerifiedAt: p.VerifiedAt,
		LastLogin:  p.LastLogin,
	}
}
