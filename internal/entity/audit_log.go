package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditSignup             AuditAction = "signup"
	AuditLoginSuccess       AuditAction = "login_success"
	AuditLoginFailed        AuditAction = "login_failed"
	AuditEmailVerified      AuditAction = "email_verified"
	AuditVerificationResent AuditAction = "verification_resent"
	AuditResetRequested     AuditAction = "password_reset_requested"
	AuditPasswordReset      AuditAction = "password_reset"
)

// AuditLog records auth-flow events for both principal types. Writes are
// best-effort; a failed insert never fails the operation that produced it.
type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	PrincipalID   *uuid.UUID    `gorm:"type:uuid;index"`
	PrincipalType PrincipalType `gorm:"type:varchar(16)"`

	IPAddress *string     `gorm:"type:varchar(45)"`
	Action    AuditAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
