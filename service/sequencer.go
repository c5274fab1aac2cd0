package service

import "yayago/domain"

// Preconditions is the snapshot of external state taken once at session
// start. The effective step list is never recomputed mid-session, so a
// precondition changing while the modal is open cannot shift the
// partner's current position.
type Preconditions struct {
	PhoneVerified bool
	PhoneNumber   string
}

// ComputeEffectiveSteps drops every step whose precondition is already
// satisfied, preserving the relative order of the full set. Pure and
// idempotent.
func ComputeEffectiveSteps(full []domain.VerificationStep, pre Preconditions) []domain.VerificationStep {
	steps := make([]domain.VerificationStep, 0, len(full))
	for _, step := range full {
		if step == domain.StepPhone && pre.PhoneVerified {
			continue
		}
		steps = append(steps, step)
	}
	return steps
}

// StepComplete is the per-step completion predicate: capture steps need a
// non-empty evidence entry, the phone step needs a verified challenge.
func StepComplete(step domain.VerificationStep, evidence map[domain.VerificationStep]string, otp domain.OtpChallengeState) bool {
	if step == domain.StepPhone {
		return otp.State == domain.OtpVerified
	}
	return evidence[step] != ""
}

// CanAdvance reports whether the current step's evidence is in place.
func CanAdvance(session *domain.WorkflowSession) bool {
	step := session.CurrentStep()
	if step == "" {
		return false
	}
	return StepComplete(step, session.Evidence, session.Otp)
}

// AllStepsComplete checks every effective step, used by the submission
// fail-fast path.
func AllStepsComplete(session *domain.WorkflowSession) bool {
	for _, step := range session.EffectiveSteps {
		if !StepComplete(step, session.Evidence, session.Otp) {
			return false
		}
	}
	return true
}
