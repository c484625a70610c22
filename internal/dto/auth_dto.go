package dto

import (
	"time"

	"marketauth/internal/service"
)

// Envelope is the uniform response shape on every path, success or
// failure. Clients rely on it; never answer with anything else.
type Envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func SuccessResponse(message string, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Success: true, Message: message, Data: data}
}

func ErrorResponse(message string, data map[string]any) Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return Envelope{Success: false, Message: message, Data: data}
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phoneNumber" validate:"omitempty,max=16"`
	Country  string `json:"country" validate:"omitempty"`
	State    string `json:"state" validate:"omitempty"`
	Address  string `json:"address" validate:"omitempty"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type PrincipalResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	IsVerified bool       `json:"isVerified"`
	Status     string     `json:"status"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

func PrincipalResponseFromProfile(profile *service.PrincipalProfile) PrincipalResponse {
	return PrincipalResponse{
		ID:         profile.ID,
		Name:       profile.Name,
		Email:      profile.Email,
		Role:       string(profile.Role),
		IsVerified: profile.Verified,
		Status:     string(profile.Status),
		VerifiedAt: profile.VerifiedAt,
		LastLogin:  profile.LastLogin,
	}
}
