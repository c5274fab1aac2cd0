package dto

import (
	"yayago/domain"
	"yayago/utils"
)

type RequestOtpRequest struct {
	Phone string `json:"phone" binding:"required,phonenumber"`
}

type VerifyOtpRequest struct {
	Code string `json:"code" binding:"required,otpcode"`
}

// SessionResponse is the session state the UI renders: per-step
// completion, progress and a masked phone number.
type SessionResponse struct {
	ID             string           `json:"id"`
	EffectiveSteps []StepState      `json:"effective_steps"`
	Position       int              `json:"position"`
	CurrentStep    string           `json:"current_step"`
	IsFirstStep    bool             `json:"is_first_step"`
	IsLastStep     bool             `json:"is_last_step"`
	Progress       float64          `json:"progress"`
	Otp            OtpStateResponse `json:"otp"`
	LastResult     string           `json:"last_result,omitempty"`
	FailureReason  string           `json:"failure_reason,omitempty"`
}

type StepState struct {
	Step     string `json:"step"`
	Label    string `json:"label"`
	Complete bool   `json:"complete"`
}

type OtpStateResponse struct {
	State       string `json:"state"`
	PhoneMasked string `json:"phone_masked,omitempty"`
}

func MakeSessionResponse(session *domain.WorkflowSession) SessionResponse {
	steps := make([]StepState, 0, len(session.EffectiveSteps))
	for _, step := range session.EffectiveSteps {
		complete := session.Evidence[step] != ""
		if step == domain.StepPhone {
			complete = session.Otp.State == domain.OtpVerified
		}
		steps = append(steps, StepState{
			Step:     string(step),
			Label:    utils.StepLabel(string(step)),
			Complete: complete,
		})
	}

	return SessionResponse{
		ID:             session.ID,
		EffectiveSteps: steps,
		Position:       session.Position,
		CurrentStep:    string(session.CurrentStep()),
		IsFirstStep:    session.IsFirstStep(),
		IsLastStep:     session.IsLastStep(),
		Progress:       session.Progress(),
		Otp: OtpStateResponse{
			State:       string(session.Otp.State),
			PhoneMasked: utils.MaskPhone(session.Otp.PhoneNumber),
		},
		LastResult:    session.LastResult,
		FailureReason: session.FailureReason,
	}
}
