package domain

import (
	"context"
	"time"
)

// VerificationStep is a position marker in the identity verification
// workflow, not a stored entity.
type VerificationStep string

const (
	StepLicenseFront VerificationStep = "license_front"
	StepLicenseBack  VerificationStep = "license_back"
	StepSelfie       VerificationStep = "selfie"
	StepPhone        VerificationStep = "phone"
)

// AllVerificationSteps returns the full ordered step set. The effective
// list for a session is always a subsequence of this.
func AllVerificationSteps() []VerificationStep {
	return []VerificationStep{StepLicenseFront, StepLicenseBack, StepSelfie, StepPhone}
}

// IsCapture reports whether the step collects an image as evidence.
func (s VerificationStep) IsCapture() bool {
	return s == StepLicenseFront || s == StepLicenseBack || s == StepSelfie
}

func (s VerificationStep) Valid() bool {
	switch s {
	case StepLicenseFront, StepLicenseBack, StepSelfie, StepPhone:
		return true
	}
	return false
}

type OtpState string

const (
	OtpNotRequested OtpState = "not_requested"
	OtpSent         OtpState = "sent"
	OtpVerified     OtpState = "verified"
)

// OtpChallengeState is the OTP sub-state carried by a workflow session.
// Transitions only move forward within one phone number; the number is
// locked while a challenge is in flight.
type OtpChallengeState struct {
	State       OtpState `json:"state"`
	PhoneNumber string   `json:"phone_number"`
}

const (
	SubmissionResultNone    = ""
	SubmissionResultPending = "pending"
	SubmissionResultFailed  = "failed"
)

// WorkflowSession is the per-partner verification workflow state. One
// session per partner at a time; it lives in Redis for the lifetime of
// the modal plus a retry window.
type WorkflowSession struct {
	ID             string                      `json:"id"`
	PartnerUUID    string                      `json:"partner_uuid"`
	EffectiveSteps []VerificationStep          `json:"effective_steps"`
	Position       int                         `json:"position"`
	Evidence       map[VerificationStep]string `json:"evidence"`
	Otp            OtpChallengeState           `json:"otp"`
	LastResult     string                      `json:"last_result"`
	FailureReason  string                      `json:"failure_reason,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// CurrentStep returns the step at the current position.
func (s *WorkflowSession) CurrentStep() VerificationStep {
	if s.Position < 0 || s.Position >= len(s.EffectiveSteps) {
		return ""
	}
	return s.EffectiveSteps[s.Position]
}

// First/last are derived from the position, never stored.
func (s *WorkflowSession) IsFirstStep() bool { return s.Position == 0 }
func (s *WorkflowSession) IsLastStep() bool  { return s.Position == len(s.EffectiveSteps)-1 }

// Progress is the display fraction (position+1)/length. The denominator
// is the effective list length, never the full step set.
func (s *WorkflowSession) Progress() float64 {
	if len(s.EffectiveSteps) == 0 {
		return 0
	}
	return float64(s.Position+1) / float64(len(s.EffectiveSteps))
}

type SessionRepository interface {
	SaveSession(ctx context.Context, session *WorkflowSession) error
	GetSession(ctx context.Context, partnerUUID string) (*WorkflowSession, error) // nil, nil when absent
	DeleteSession(ctx context.Context, partnerUUID string) error
}

// LockRepository hands out short-lived mutual-exclusion locks. Used to
// reject duplicate invocations of OTP request/verify, submission and
// embedded-session initialization while one is already in flight.
type LockRepository interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// SMSSender delivers an OTP message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// StatusInfo is the eligibility read model for gating UI.
type StatusInfo struct {
	VerificationStatus string `json:"verification_status"`
	PhoneVerified      bool   `json:"phone_verified"`
	BookingEligible    bool   `json:"booking_eligible"`
	OrgUUID            string `json:"org_uuid"`
}

type VerificationUseCase interface {
	OpenSession(ctx context.Context, partnerUUID string) (*WorkflowSession, error)
	GetSession(ctx context.Context, partnerUUID string) (*WorkflowSession, error)
	CloseSession(ctx context.Context, partnerUUID string) error
	AttachEvidence(ctx context.Context, partnerUUID string, step VerificationStep, data []byte) (*WorkflowSession, error)
	RetakeEvidence(ctx context.Context, partnerUUID string, step VerificationStep) (*WorkflowSession, error)
	Next(ctx context.Context, partnerUUID string) (*WorkflowSession, error)
	Back(ctx context.Context, partnerUUID string) (*WorkflowSession, error)
	RequestOtp(ctx context.Context, partnerUUID, phone string) error
	VerifyOtp(ctx context.Context, partnerUUID, code string) (*WorkflowSession, error)
	Submit(ctx context.Context, partnerUUID string) (*WorkflowSession, error)
	Status(ctx context.Context, partnerUUID string) (*StatusInfo, error)
}
