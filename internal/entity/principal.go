package entity

import (
	"time"

	"github.com/google/uuid"
)

type PrincipalType string

const (
	PrincipalBuyer  PrincipalType = "buyer"
	PrincipalVendor PrincipalType = "vendor"
)

func (t PrincipalType) Valid() bool {
	return t == PrincipalBuyer || t == PrincipalVendor
}

// TableName maps each principal type to its own table. Buyers and vendors
// were always separate collections; uniqueness across the pair is enforced
// in the service, not the schema.
func (t PrincipalType) TableName() string {
	if t == PrincipalVendor {
		return "vendors"
	}
	return "buyers"
}

type VerificationState string

const (
	StateUnverified VerificationState = "unverified"
	StatePending    VerificationState = "pending"
	StateVerified   VerificationState = "verified"
)

// LegacyStatus is the older two-value representation still present in
// stored rows. StateVerified corresponds to StatusCompleted; everything
// else is StatusPending.
type LegacyStatus string

const (
	StatusPending   LegacyStatus = "pending"
	StatusCompleted LegacyStatus = "completed"
)

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

type Principal struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name  string    `gorm:"type:varchar(255);not null"`
	Email string    `gorm:"type:varchar(255);uniqueIndex;not null"`

	PasswordHash *string      `gorm:"type:text"`
	Provider     AuthProvider `gorm:"type:varchar(16);default:'local';not null"`
	GoogleID     *string      `gorm:"type:varchar(255)"`

	Phone   *string `gorm:"type:varchar(32)"`
	Country *string `gorm:"type:varchar(64)"`
	State   *string `gorm:"type:varchar(64)"`
	Address *string `gorm:"type:text"`

	VerificationState VerificationState `gorm:"type:varchar(16);default:'unverified';not null"`
	Status            LegacyStatus      `gorm:"type:varchar(16);default:'pending';not null"`

	EmailToken        *string `gorm:"type:varchar(16)"`
	EmailTokenExpires *time.Time

	ResetOTPHash    *string    `gorm:"column:reset_otp_hash;type:text"`
	ResetOTPExpires *time.Time `gorm:"column:reset_otp_expires"`

	ResetTokenHash    *string `gorm:"type:text"`
	ResetTokenExpires *time.Time

	LastLogin  *time.Time
	VerifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verified is the derived view of the verification enum.
func (p *Principal) Verified() bool {
	return p.VerificationState == StateVerified
}

// LegacyCompleted reports whether an older writer marked the row completed
// without updating the verification enum. Login self-heals these rows.
func (p *Principal) LegacyCompleted() bool {
	return p.Status == StatusCompleted && p.VerificationState != StateVerified
}

func (p *Principal) HasPendingEmailToken() bool {
	return p.EmailToken != nil && p.EmailTokenExpires != nil
}
