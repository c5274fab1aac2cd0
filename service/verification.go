package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"yayago/domain"
	"yayago/utils"

	"github.com/google/uuid"
)

const (
	otpRequestLockTTL = 20 * time.Second
	otpVerifyLockTTL  = 10 * time.Second
	submitLockTTL     = 30 * time.Second
	smsCallTimeout    = 15 * time.Second
)

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type verificationService struct {
	sessions domain.SessionRepository
	otpRepo  domain.OTPRepository
	profiles domain.ProfileRepository
	locks    domain.LockRepository
	sms      domain.SMSSender
}

func NewVerificationService(
	sessions domain.SessionRepository,
	otpRepo domain.OTPRepository,
	profiles domain.ProfileRepository,
	locks domain.LockRepository,
	sms domain.SMSSender,
) domain.VerificationUseCase {
	return &verificationService{
		sessions: sessions,
		otpRepo:  otpRepo,
		profiles: profiles,
		locks:    locks,
		sms:      sms,
	}
}

// OpenSession resumes an existing session or starts a new one from a
// snapshot of the profile's preconditions. The effective step list is
// computed here and only here.
func (s *verificationService) OpenSession(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	if existing, err := s.sessions.GetSession(ctx, partnerUUID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	profile, err := s.profiles.GetProfileByUUID(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	switch profile.VerificationStatus {
	case domain.VerificationPending:
		return nil, domain.ErrReviewPending
	case domain.VerificationApproved:
		return nil, domain.ErrAlreadyVerified
	}

	pre := Preconditions{PhoneVerified: profile.PhoneVerified, PhoneNumber: profile.Phone}
	session := &domain.WorkflowSession{
		ID:             uuid.NewString(),
		PartnerUUID:    partnerUUID,
		EffectiveSteps: ComputeEffectiveSteps(domain.AllVerificationSteps(), pre),
		Position:       0,
		Evidence:       make(map[domain.VerificationStep]string),
		Otp:            domain.OtpChallengeState{State: domain.OtpNotRequested},
		CreatedAt:      time.Now(),
	}

	// Pre-verified phone: the OTP unit is bypassed entirely and its state
	// force-initialized Verified with the known number.
	if pre.PhoneVerified {
		session.Otp = domain.OtpChallengeState{State: domain.OtpVerified, PhoneNumber: pre.PhoneNumber}
		session.Evidence[domain.StepPhone] = pre.PhoneNumber
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *verificationService) GetSession(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	session, err := s.sessions.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *verificationService) CloseSession(ctx context.Context, partnerUUID string) error {
	if err := s.otpRepo.DeleteOTP(ctx, partnerUUID); err != nil {
		return err
	}
	return s.sessions.DeleteSession(ctx, partnerUUID)
}

// AttachEvidence validates and stores one capture step's image. It never
// advances the sequencer; advancing is a distinct call.
func (s *verificationService) AttachEvidence(ctx context.Context, partnerUUID string, step domain.VerificationStep, data []byte) (*domain.WorkflowSession, error) {
	if !step.IsCapture() {
		return nil, domain.ErrInvalidStep
	}

	// Local validation before anything is stored.
	if len(data) > domain.MaxEvidenceBytes {
		return nil, domain.ErrPayloadTooLarge
	}
	if !acceptedImageTypes[http.DetectContentType(data)] {
		return nil, domain.ErrUnsupportedMediaType
	}

	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	session.Evidence[step] = base64.StdEncoding.EncodeToString(data)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RetakeEvidence clears exactly one step's evidence. Position and other
// steps are untouched.
func (s *verificationService) RetakeEvidence(ctx context.Context, partnerUUID string, step domain.VerificationStep) (*domain.WorkflowSession, error) {
	if !step.IsCapture() {
		return nil, domain.ErrInvalidStep
	}

	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	delete(session.Evidence, step)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *verificationService) Next(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	if !CanAdvance(session) {
		return nil, domain.ErrIncompleteEvidence
	}
	if session.IsLastStep() {
		// Never advances past the last index.
		return session, nil
	}

	session.Position++
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Back never clears evidence for the step being left.
func (s *verificationService) Back(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	if session.IsFirstStep() {
		return session, nil
	}

	session.Position--
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *verificationService) RequestOtp(ctx context.Context, partnerUUID, phone string) error {
	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return err
	}

	if session.Otp.State == domain.OtpVerified {
		return domain.ErrAlreadyVerified
	}

	// While a challenge is in flight the number is locked: a resend
	// always reuses it, so code and number can never mismatch.
	if session.Otp.State == domain.OtpSent {
		phone = session.Otp.PhoneNumber
	} else if !utils.ValidPhoneNumber(phone) {
		return domain.ErrInvalidPhoneFormat
	}

	challenge, err := s.otpRepo.GetOTP(ctx, partnerUUID)
	if err != nil {
		return err
	}
	if challenge != nil && challenge.Resends >= domain.OtpMaxResends {
		return domain.ErrResendLimit
	}

	acquired, err := s.locks.Acquire(ctx, "otpreq:"+partnerUUID, otpRequestLockTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return domain.ErrOperationInFlight
	}
	defer s.locks.Release(ctx, "otpreq:"+partnerUUID)

	code, err := utils.GenerateOTP(domain.OtpCodeLength)
	if err != nil {
		return err
	}

	// Deliver first: a failed delivery must leave the unit in its prior
	// state so the partner can retry.
	smsCtx, cancel := context.WithTimeout(ctx, smsCallTimeout)
	defer cancel()
	body := fmt.Sprintf("Your YayaGo verification code is %s (valid for %d minutes)", code, int(domain.OtpTTL.Minutes()))
	if err := s.sms.Send(smsCtx, phone, body); err != nil {
		return domain.DeliveryFailedError(err)
	}

	if err := s.otpRepo.SaveOTP(ctx, partnerUUID, phone, code, domain.OtpTTL); err != nil {
		return err
	}

	session.Otp = domain.OtpChallengeState{State: domain.OtpSent, PhoneNumber: phone}
	return s.sessions.SaveSession(ctx, session)
}

func (s *verificationService) VerifyOtp(ctx context.Context, partnerUUID, code string) (*domain.WorkflowSession, error) {
	// Rejected locally before any store or network touch.
	if !utils.ValidOtpCode(code) {
		return nil, domain.ErrInvalidCodeFormat
	}

	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}
	if session.Otp.State != domain.OtpSent {
		return nil, domain.ErrChallengeExpired
	}

	acquired, err := s.locks.Acquire(ctx, "otpverify:"+partnerUUID, otpVerifyLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrOperationInFlight
	}
	defer s.locks.Release(ctx, "otpverify:"+partnerUUID)

	challenge, err := s.otpRepo.GetOTP(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		// TTL ran out; the session stays Sent so the partner can resend.
		return nil, domain.ErrChallengeExpired
	}

	valid, attempts, err := s.otpRepo.CheckCode(ctx, partnerUUID, code)
	if err != nil {
		return nil, err
	}
	if !valid {
		if attempts >= domain.OtpMaxAttempts {
			if err := s.otpRepo.DeleteOTP(ctx, partnerUUID); err != nil {
				return nil, err
			}
			session.Otp = domain.OtpChallengeState{State: domain.OtpNotRequested}
			if err := s.sessions.SaveSession(ctx, session); err != nil {
				return nil, err
			}
			return nil, domain.ErrChallengeExpired
		}
		// Wrong code leaves the unit in Sent, ready for re-entry or resend.
		return nil, domain.ErrChallengeMismatch
	}

	session.Otp.State = domain.OtpVerified
	session.Evidence[domain.StepPhone] = session.Otp.PhoneNumber
	if err := s.otpRepo.DeleteOTP(ctx, partnerUUID); err != nil {
		return nil, err
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Submit aggregates all evidence and performs one atomic handoff to the
// review queue. Preconditions are checked locally first; partial
// evidence never leaves the session.
func (s *verificationService) Submit(ctx context.Context, partnerUUID string) (*domain.WorkflowSession, error) {
	session, err := s.GetSession(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	if session.Otp.State != domain.OtpVerified || session.Otp.PhoneNumber == "" || !AllStepsComplete(session) {
		return nil, domain.ErrIncompleteEvidence
	}
	for _, step := range domain.AllVerificationSteps() {
		if step.IsCapture() && session.Evidence[step] == "" {
			return nil, domain.ErrIncompleteEvidence
		}
	}

	acquired, err := s.locks.Acquire(ctx, "submit:"+partnerUUID, submitLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrDuplicateSubmission
	}
	defer s.locks.Release(ctx, "submit:"+partnerUUID)

	sub := &domain.VerificationSubmission{
		PartnerUUID:       partnerUUID,
		LicenseFrontImage: session.Evidence[domain.StepLicenseFront],
		LicenseBackImage:  session.Evidence[domain.StepLicenseBack],
		SelfieImage:       session.Evidence[domain.StepSelfie],
		PhoneNumber:       session.Otp.PhoneNumber,
		Status:            domain.VerificationPending,
	}

	if err := s.profiles.CreateSubmission(ctx, sub); err != nil {
		// Rejected server-side: evidence is retained and the partner is
		// returned to the last step to correct and resubmit.
		reason := utils.TranslateDBError(err)
		session.LastResult = domain.SubmissionResultFailed
		session.FailureReason = reason
		session.Position = len(session.EffectiveSteps) - 1
		if saveErr := s.sessions.SaveSession(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return session, domain.SubmissionRejectedError(reason)
	}

	profile, err := s.profiles.GetProfileByUUID(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}
	profile.VerificationStatus = domain.VerificationPending
	profile.PhoneVerified = true
	profile.Phone = session.Otp.PhoneNumber
	if err := s.profiles.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	// UpdateProfile invalidates the cached profile, but the submission has
	// gone through even if that write raced: drop it again explicitly.
	_ = s.profiles.InvalidateCache(ctx, partnerUUID)

	// Handed off: no reason to retain captured images or OTP state.
	session.Evidence = make(map[domain.VerificationStep]string)
	session.Otp = domain.OtpChallengeState{State: domain.OtpNotRequested}
	session.LastResult = domain.SubmissionResultPending
	session.FailureReason = ""
	_ = s.otpRepo.DeleteOTP(ctx, partnerUUID)

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *verificationService) Status(ctx context.Context, partnerUUID string) (*domain.StatusInfo, error) {
	profile, err := s.profiles.GetProfileByUUID(ctx, partnerUUID)
	if err != nil {
		return nil, err
	}

	return &domain.StatusInfo{
		VerificationStatus: profile.VerificationStatus,
		PhoneVerified:      profile.PhoneVerified,
		BookingEligible:    profile.VerificationStatus == domain.VerificationApproved,
		OrgUUID:            profile.OrgUUID,
	}, nil
}
