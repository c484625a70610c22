package repository

import (
	"context"
	"errors"
	"time"

	"marketauth/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PrincipalRepository persists buyers and vendors. Each principal type
// lives in its own table; every method takes the type explicitly. Token
// consumption methods are single conditional updates keyed on the current
// token value so that concurrent consumers cannot both succeed.
type PrincipalRepository interface {
	Create(ctx context.Context, typ entity.PrincipalType, principal *entity.Principal) error
	FindByID(ctx context.Context, typ entity.PrincipalType, id uuid.UUID) (*entity.Principal, error)
	FindByEmail(ctx context.Context, typ entity.PrincipalType, email string) (*entity.Principal, error)
	FindByResetTokenHash(ctx context.Context, typ entity.PrincipalType, tokenHash string, now time.Time) (*entity.Principal, error)

	SetEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, expires time.Time) error
	ConsumeEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, now time.Time) (bool, error)
	MarkVerified(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error

	SetResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, expires time.Time) error
	ConsumeResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, tokenHash string, tokenExpires time.Time, now time.Time) (bool, error)
	ConsumeResetToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, tokenHash string, passwordHash string, now time.Time) (bool, error)

	UpdateLastLogin(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error
}

type principalRepository struct {
	db *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) PrincipalRepository {
	return &principalRepository{db: db}
}

func (r *principalRepository) table(ctx context.Context, typ entity.PrincipalType) *gorm.DB {
	return r.db.WithContext(ctx).Table(typ.TableName())
}

func (r *principalRepository) Create(ctx context.Context, typ entity.PrincipalType, principal *entity.Principal) error {
	return r.table(ctx, typ).Create(principal).Error
}

func (r *principalRepository) FindByID(ctx context.Context, typ entity.PrincipalType, id uuid.UUID) (*entity.Principal, error) {
	var principal entity.Principal
	err := r.table(ctx, typ).
		Where("id = ?", id).
		First(&principal).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *principalRepository) FindByEmail(ctx context.Context, typ entity.PrincipalType, email string) (*entity.Principal, error) {
	var principal entity.Principal
	err := r.table(ctx, typ).
		Where("email = ?", email).
		First(&principal).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *principalRepository) FindByResetTokenHash(ctx context.Context, typ entity.PrincipalType, tokenHash string, now time.Time) (*entity.Principal, error) {
	var principal entity.Principal
	err := r.table(ctx, typ).
		Where("reset_token_hash = ? AND reset_token_expires > ?", tokenHash, now).
		First(&principal).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &principal, nil
}

// SetEmailToken overwrites any pending verification code; the previous
// code becomes invalid immediately.
func (r *principalRepository) SetEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, expires time.Time) error {
	return r.table(ctx, typ).
		Where("id = ?", id).
		Updates(map[string]any{
			"email_token":         token,
			"email_token_expires": expires,
			"verification_state":  entity.StatePending,
			"status":              entity.StatusPending,
		}).Error
}

// ConsumeEmailToken flips the principal to verified if and only if the
// stored code still equals token and has not expired. The token value in
// the predicate makes the read-check-write a single atomic statement.
func (r *principalRepository) ConsumeEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, now time.Time) (bool, error) {
	result := r.table(ctx, typ).
		Where("id = ? AND email_token = ? AND email_token_expires > ?", id, token, now).
		Updates(map[string]any{
			"verification_state":  entity.StateVerified,
			"status":              entity.StatusCompleted,
			"verified_at":         now,
			"email_token":         nil,
			"email_token_expires": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *principalRepository) MarkVerified(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error {
	return r.table(ctx, typ).
		Where("id = ?", id).
		Updates(map[string]any{
			"verification_state":  entity.StateVerified,
			"status":              entity.StatusCompleted,
			"verified_at":         now,
			"email_token":         nil,
			"email_token_expires": nil,
		}).Error
}

func (r *principalRepository) SetResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, expires time.Time) error {
	return r.table(ctx, typ).
		Where("id = ?", id).
		Updates(map[string]any{
			"reset_otp_hash":    otpHash,
			"reset_otp_expires": expires,
		}).Error
}

// ConsumeResetOTP exchanges a still-valid reset OTP for a reset token in
// one statement: the OTP fields are cleared and the token hash stored only
// when the stored OTP hash matches and is unexpired.
func (r *principalRepository) ConsumeResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, tokenHash string, tokenExpires time.Time, now time.Time) (bool, error) {
	result := r.table(ctx, typ).
		Where("id = ? AND reset_otp_hash = ? AND reset_otp_expires > ?", id, otpHash, now).
		Updates(map[string]any{
			"reset_otp_hash":      nil,
			"reset_otp_expires":   nil,
			"reset_token_hash":    tokenHash,
			"reset_token_expires": tokenExpires,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ConsumeResetToken writes the new password hash and clears the reset
// token, conditioned on the stored hash still matching and being unexpired.
func (r *principalRepository) ConsumeResetToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, tokenHash string, passwordHash string, now time.Time) (bool, error) {
	result := r.table(ctx, typ).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expires > ?", id, tokenHash, now).
		Updates(map[string]any{
			"password_hash":       passwordHash,
			"reset_token_hash":    nil,
			"reset_token_expires": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *principalRepository) UpdateLastLogin(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error {
	return r.table(ctx, typ).
		Where("id = ?", id).
		Update("last_login", now).
		Error
}
