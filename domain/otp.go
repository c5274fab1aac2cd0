// domain/otp.go
package domain

import (
	"context"
	"time"
)

const (
	OtpCodeLength  = 6
	OtpTTL         = 5 * time.Minute
	OtpMaxAttempts = 5
	OtpMaxResends  = 5
)

// OtpChallenge is the server-side challenge record. The code itself is
// stored only as a bcrypt digest.
type OtpChallenge struct {
	PhoneNumber string
	Attempts    int
	Resends     int
}

type OTPRepository interface {
	// SaveOTP stores a new code for the partner, hashing it at rest.
	// Re-saving an existing challenge counts as a resend.
	SaveOTP(ctx context.Context, partnerUUID, phone, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, partnerUUID string) (*OtpChallenge, error) // nil, nil when absent
	// CheckCode compares the code against the stored digest and bumps the
	// attempts counter on mismatch.
	CheckCode(ctx context.Context, partnerUUID, code string) (bool, int, error)
	DeleteOTP(ctx context.Context, partnerUUID string) error
}
