package dto

import (
	"testing"

	"yayago/domain"

	"github.com/stretchr/testify/assert"
)

func TestMakeSessionResponse(t *testing.T) {
	session := &domain.WorkflowSession{
		ID:             "sess-1",
		EffectiveSteps: domain.AllVerificationSteps(),
		Position:       1,
		Evidence: map[domain.VerificationStep]string{
			domain.StepLicenseFront: "img",
		},
		Otp: domain.OtpChallengeState{State: domain.OtpSent, PhoneNumber: "+971500000001"},
	}

	resp := MakeSessionResponse(session)

	assert.Equal(t, "sess-1", resp.ID)
	assert.Equal(t, string(domain.StepLicenseBack), resp.CurrentStep)
	assert.False(t, resp.IsFirstStep)
	assert.False(t, resp.IsLastStep)
	assert.InDelta(t, 0.5, resp.Progress, 1e-9)

	assert.Equal(t, []StepState{
		{Step: "license_front", Label: "License Front", Complete: true},
		{Step: "license_back", Label: "License Back", Complete: false},
		{Step: "selfie", Label: "Selfie", Complete: false},
		{Step: "phone", Label: "Phone", Complete: false},
	}, resp.EffectiveSteps)

	assert.Equal(t, "sent", resp.Otp.State)
	assert.Equal(t, "*********0001", resp.Otp.PhoneMasked)
}

func TestMakeSessionResponsePhoneCompleteWhenVerified(t *testing.T) {
	session := &domain.WorkflowSession{
		ID:             "sess-2",
		EffectiveSteps: domain.AllVerificationSteps(),
		Position:       3,
		Evidence:       map[domain.VerificationStep]string{},
		Otp:            domain.OtpChallengeState{State: domain.OtpVerified, PhoneNumber: "+971500000001"},
	}

	resp := MakeSessionResponse(session)
	assert.True(t, resp.EffectiveSteps[3].Complete)
	assert.True(t, resp.IsLastStep)
}
