package domain

import (
	"context"
	"time"
)

const (
	RolePartner = "partner"
	RoleAdmin   = "admin"

	VerificationNotSubmitted = "not_submitted"
	VerificationPending      = "pending"
	VerificationApproved     = "approved"
	VerificationRejected     = "rejected"
	VerificationExpired      = "expired"

	// Evidence capture limits. 10 MB ceiling per image.
	MaxEvidenceBytes = 10 << 20
)

type PartnerProfile struct {
	UUID               string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"uuid"`
	Name               string  `gorm:"not null;size:50" json:"name"`
	Email              string  `gorm:"unique;not null" json:"email"`
	Phone              string  `gorm:"size:20" json:"phone"`
	PhoneVerified      bool    `gorm:"not null;default:false" json:"phone_verified"`
	VerificationStatus string  `gorm:"not null;default:not_submitted" json:"verification_status"`
	Role               string  `gorm:"not null;default:partner" json:"role"`
	OrgUUID            string  `gorm:"type:uuid;index" json:"org_uuid"`
	Image              *string `gorm:"type:text" json:"image,omitempty"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// VerificationSubmission is the review-queue record the moderation
// backend consumes. Images are stored base64-encoded as captured.
type VerificationSubmission struct {
	ID                int       `gorm:"primaryKey" json:"id"`
	PartnerUUID       string    `gorm:"type:uuid;not null;index" json:"partner_uuid"`
	LicenseFrontImage string    `gorm:"type:text;not null" json:"-"`
	LicenseBackImage  string    `gorm:"type:text;not null" json:"-"`
	SelfieImage       string    `gorm:"type:text;not null" json:"-"`
	PhoneNumber       string    `gorm:"not null;size:20" json:"phone_number"`
	Status            string    `gorm:"not null;default:pending" json:"status"`
	ReviewNote        string    `json:"review_note"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProfileRepository interface {
	GetProfileByUUID(ctx context.Context, uuid string) (*PartnerProfile, error)
	UpdateProfile(ctx context.Context, profile *PartnerProfile) error
	CreateSubmission(ctx context.Context, sub *VerificationSubmission) error
	// InvalidateCache drops any cached copy of the profile so gating UI
	// reads fresh state after a status change.
	InvalidateCache(ctx context.Context, uuid string) error
}
