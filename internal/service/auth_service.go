package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"marketauth/internal/entity"
	"marketauth/internal/repository"
	"marketauth/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dummyPasswordHash = "$2a$12$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

// AuthService is the verification and credential-lifecycle state machine
// for both principal types. One parameterized implementation replaces the
// per-type controller copies that used to drift apart.
type AuthService struct {
	principals repository.PrincipalRepository
	auditLogs  repository.AuditLogRepository

	emailSender   EmailSender
	passwordHash  PasswordHasher
	sessionTokens SessionTokenIssuer
	clock         Clock
	logger        logrus.FieldLogger
	config        AuthConfig
}

func NewAuthService(
	principals repository.PrincipalRepository,
	auditLogs repository.AuditLogRepository,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	sessionTokens SessionTokenIssuer,
	clock Clock,
	logger logrus.FieldLogger,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		principals:    principals,
		auditLogs:     auditLogs,
		emailSender:   emailSender,
		passwordHash:  passwordHash,
		sessionTokens: sessionTokens,
		clock:         clock,
		logger:        logger,
		config:        config,
	}
}

func (s *AuthService) Signup(ctx context.Context, typ entity.PrincipalType, input SignupInput) (*SignupResult, error) {
	if !typ.Valid() {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	if !utils.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if reason := utils.ValidatePassword(input.Password); reason != "" {
		return nil, weakPassword(reason)
	}

	// Uniqueness spans both tables; the schema constraint covers only one.
	for _, existingType := range []entity.PrincipalType{entity.PrincipalVendor, entity.PrincipalBuyer} {
		existing, err := s.principals.FindByEmail(ctx, existingType, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateEmail
		}
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.otpTTL())

	principal := &entity.Principal{
		Name:              strings.TrimSpace(input.Name),
		Email:             email,
		PasswordHash:      &hash,
		Provider:          entity.ProviderLocal,
		Phone:             optional(input.Phone),
		Country:           optional(input.Country),
		State:             optional(input.State),
		Address:           optional(input.Address),
		VerificationState: entity.StatePending,
		Status:            entity.StatusPending,
		EmailToken:        &otp,
		EmailTokenExpires: &expires,
	}
	if err := s.principals.Create(ctx, typ, principal); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	// The account exists regardless of email delivery; a failed dispatch
	// downgrades the response code, it never rolls back the row.
	emailSent := s.dispatchVerification(ctx, principal, otp)

	s.audit(ctx, &principal.ID, typ, nil, entity.AuditSignup, map[string]any{"email_sent": emailSent})
	return &SignupResult{Email: email, EmailSent: emailSent}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, typ entity.PrincipalType, email string, otp string) (*VerifyEmailResult, error) {
	if !typ.Valid() || strings.TrimSpace(email) == "" || strings.TrimSpace(otp) == "" {
		return nil, ErrInvalidInput
	}

	principal, err := s.principals.FindByEmail(ctx, typ, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, ErrNotFound
	}

	if principal.Verified() {
		return &VerifyEmailResult{AlreadyVerified: true}, nil
	}
	if principal.LegacyCompleted() && !principal.HasPendingEmailToken() {
		if err := s.principals.MarkVerified(ctx, typ, principal.ID, s.now()); err != nil {
			return nil, err
		}
		return &VerifyEmailResult{AlreadyVerified: true}, nil
	}

	if !principal.HasPendingEmailToken() {
		return nil, ErrNoPendingToken
	}
	if subtle.ConstantTimeCompare([]byte(*principal.EmailToken), []byte(strings.TrimSpace(otp))) != 1 {
		return nil, ErrCodeMismatch
	}
	now := s.now()
	if !principal.EmailTokenExpires.After(now) {
		return nil, ErrCodeExpired
	}

	ok, err := s.principals.ConsumeEmailToken(ctx, typ, principal.ID, *principal.EmailToken, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent verify or resend.
		return nil, ErrNoPendingToken
	}

	s.audit(ctx, &principal.ID, typ, nil, entity.AuditEmailVerified, nil)
	return &VerifyEmailResult{}, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, typ entity.PrincipalType, email string) (*ResendResult, error) {
	if !typ.Valid() || strings.TrimSpace(email) == "" {
		return nil, ErrInvalidInput
	}

	principal, err := s.principals.FindByEmail(ctx, typ, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if principal == nil {
		return nil, ErrNotFound
	}
	if principal.Verified() || principal.LegacyCompleted() {
		return nil, ErrAlreadyVerified
	}

	otp, err := s.rotateEmailToken(ctx, typ, principal)
	if err != nil {
		return nil, err
	}
	emailSent := s.dispatchVerification(ctx, principal, otp)

	s.audit(ctx, &principal.ID, typ, nil, entity.AuditVerificationResent, map[string]any{"email_sent": emailSent})
	return &ResendResult{Email: principal.Email, EmailSent: emailSent}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	email := utils.NormalizeEmail(input.Email)
	if !utils.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	principal, typ, err := s.findByEmailAnyType(ctx, email)
	if err != nil {
		return nil, err
	}
	if principal == nil || principal.PasswordHash == nil {
		// Burn a comparison so unknown emails cost the same as bad passwords.
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		s.audit(ctx, nil, "", input.IPAddress, entity.AuditLoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}
	if !s.passwordHash.Verify(*principal.PasswordHash, input.Password) {
		s.audit(ctx, &principal.ID, typ, input.IPAddress, entity.AuditLoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	if !principal.Verified() {
		if principal.LegacyCompleted() && !principal.HasPendingEmailToken() {
			// Older writers set status=completed without the verified flag.
			if err := s.principals.MarkVerified(ctx, typ, principal.ID, s.now()); err != nil {
				return nil, err
			}
		} else {
			resent := false
			if otp, rotateErr := s.rotateEmailToken(ctx, typ, principal); rotateErr == nil {
				resent = s.dispatchVerification(ctx, principal, otp)
			} else {
				return nil, rotateErr
			}
			return nil, &VerificationRequiredError{
				Email:         principal.Email,
				PrincipalType: typ,
				CodeResent:    resent,
			}
		}
	}

	token, ttl, err := s.sessionTokens.IssueSessionToken(principal, typ)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.principals.UpdateLastLogin(ctx, typ, principal.ID, now); err != nil {
		return nil, err
	}
	principal.LastLogin = &now
	principal.VerificationState = entity.StateVerified
	principal.Status = entity.StatusCompleted

	s.audit(ctx, &principal.ID, typ, input.IPAddress, entity.AuditLoginSuccess, nil)
	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
		Principal: profileOf(principal, typ),
	}, nil
}

// ForgotPassword answers identically whether or not the email exists; the
// caller can not probe for accounts. Dispatch problems are logged, never
// surfaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}

	principal, typ, err := s.findByEmailAnyType(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if principal == nil {
		return nil
	}

	otp, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.principals.SetResetOTP(ctx, typ, principal.ID, utils.HashToken(otp), s.now().Add(s.resetOTPTTL())); err != nil {
		return err
	}

	if s.emailSender != nil {
		if sendErr := s.emailSender.SendPasswordResetEmail(ctx, principal.Email, principal.Name, otp); sendErr != nil {
			s.warn(sendErr, "password reset email dispatch failed")
		}
	}
	s.audit(ctx, &principal.ID, typ, nil, entity.AuditResetRequested, nil)
	return nil
}

func (s *AuthService) VerifyResetOTP(ctx context.Context, email string, otp string) (*VerifyResetOTPResult, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(otp) == "" {
		return nil, ErrInvalidInput
	}

	principal, typ, err := s.findByEmailAnyType(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if principal == nil || principal.ResetOTPHash == nil {
		return nil, ErrInvalidResetReq
	}

	now := s.now()
	if !utils.HashMatches(*principal.ResetOTPHash, strings.TrimSpace(otp)) {
		return nil, ErrInvalidOrExpired
	}
	if principal.ResetOTPExpires == nil || !principal.ResetOTPExpires.After(now) {
		return nil, ErrInvalidOrExpired
	}

	resetToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	ttl := s.resetTokenTTL()
	ok, err := s.principals.ConsumeResetOTP(
		ctx, typ, principal.ID,
		*principal.ResetOTPHash,
		utils.HashToken(resetToken),
		now.Add(ttl),
		now,
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOrExpired
	}

	// The plaintext token exists only in this response; the store keeps the
	// digest.
	return &VerifyResetOTPResult{ResetToken: resetToken, ExpiresIn: int64(ttl.Seconds())}, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken string, newPassword string) (*ResetPasswordResult, error) {
	if strings.TrimSpace(resetToken) == "" || newPassword == "" {
		return nil, ErrInvalidInput
	}
	if reason := utils.ValidatePassword(newPassword); reason != "" {
		return nil, weakPassword(reason)
	}

	tokenHash := utils.HashToken(strings.TrimSpace(resetToken))
	now := s.now()

	var principal *entity.Principal
	var typ entity.PrincipalType
	for _, candidate := range []entity.PrincipalType{entity.PrincipalVendor, entity.PrincipalBuyer} {
		found, err := s.principals.FindByResetTokenHash(ctx, candidate, tokenHash, now)
		if err != nil {
			return nil, err
		}
		if found != nil {
			principal, typ = found, candidate
			break
		}
	}
	if principal == nil {
		return nil, ErrInvalidResetToken
	}

	passwordHash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	ok, err := s.principals.ConsumeResetToken(ctx, typ, principal.ID, tokenHash, passwordHash, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidResetToken
	}

	// Password is already changed; a failed confirmation email must not
	// fail the reset.
	emailSent := true
	if s.emailSender != nil {
		if sendErr := s.emailSender.SendPasswordChangedEmail(ctx, principal.Email, principal.Name); sendErr != nil {
			s.warn(sendErr, "password changed email dispatch failed")
			emailSent = false
		}
	}

	s.audit(ctx, &principal.ID, typ, nil, entity.AuditPasswordReset, nil)
	return &ResetPasswordResult{EmailSent: emailSent}, nil
}

// GetPrincipal resolves a session subject, Vendor first then Buyer, the
// same order login uses.
func (s *AuthService) GetPrincipal(ctx context.Context, id uuid.UUID) (*PrincipalProfile, error) {
	for _, typ := range []entity.PrincipalType{entity.PrincipalVendor, entity.PrincipalBuyer} {
		principal, err := s.principals.FindByID(ctx, typ, id)
		if err != nil {
			return nil, err
		}
		if principal != nil {
			profile := profileOf(principal, typ)
			return &profile, nil
		}
	}
	return nil, ErrNotFound
}

func (s *AuthService) findByEmailAnyType(ctx context.Context, email string) (*entity.Principal, entity.PrincipalType, error) {
	// Vendor wins when the same email somehow exists in both tables.
	for _, typ := range []entity.PrincipalType{entity.PrincipalVendor, entity.PrincipalBuyer} {
		principal, err := s.principals.FindByEmail(ctx, typ, email)
		if err != nil {
			return nil, "", err
		}
		if principal != nil {
			return principal, typ, nil
		}
	}
	return nil, "", nil
}

func (s *AuthService) rotateEmailToken(ctx context.Context, typ entity.PrincipalType, principal *entity.Principal) (string, error) {
	otp, err := utils.GenerateOTP()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.otpTTL())
	if err := s.principals.SetEmailToken(ctx, typ, principal.ID, otp, expires); err != nil {
		return "", err
	}
	principal.EmailToken = &otp
	principal.EmailTokenExpires = &expires
	return otp, nil
}

func (s *AuthService) dispatchVerification(ctx context.Context, principal *entity.Principal, otp string) bool {
	if s.emailSender == nil {
		return false
	}
	if err := s.emailSender.SendVerificationEmail(ctx, principal.Email, principal.Name, otp); err != nil {
		s.warn(err, "verification email dispatch failed")
		return false
	}
	return true
}

func (s *AuthService) audit(
	ctx context.Context,
	principalID *uuid.UUID,
	typ entity.PrincipalType,
	ipAddress *string,
	action entity.AuditAction,
	metadata map[string]any,
) {
	if s.auditLogs == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.warn(err, "audit metadata marshal failed")
			return
		}
		payload = datatypes.JSON(bytes)
	}
	log := &entity.AuditLog{
		PrincipalID:   principalID,
		PrincipalType: typ,
		IPAddress:     ipAddress,
		Action:        action,
		Metadata:      payload,
	}
	if err := s.auditLogs.Log(ctx, log); err != nil {
		s.warn(err, "audit log write failed")
	}
}

func (s *AuthService) warn(err error, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).Warn(message)
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) otpTTL() time.Duration {
	if s.config.OTPTTL > 0 {
		return s.config.OTPTTL
	}
	return 5 * time.Minute
}

func (s *AuthService) resetOTPTTL() time.Duration {
	if s.config.ResetOTPTTL > 0 {
		return s.config.ResetOTPTTL
	}
	return 10 * time.Minute
}

func (s *AuthService) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return 15 * time.Minute
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
