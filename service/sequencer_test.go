package service

import (
	"testing"

	"yayago/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeEffectiveSteps(t *testing.T) {
	full := domain.AllVerificationSteps()

	t.Run("unverified phone keeps all four steps", func(t *testing.T) {
		steps := ComputeEffectiveSteps(full, Preconditions{})
		assert.Equal(t, []domain.VerificationStep{
			domain.StepLicenseFront,
			domain.StepLicenseBack,
			domain.StepSelfie,
			domain.StepPhone,
		}, steps)
	})

	t.Run("verified phone drops the phone step", func(t *testing.T) {
		steps := ComputeEffectiveSteps(full, Preconditions{PhoneVerified: true, PhoneNumber: "+971500000001"})
		assert.Equal(t, []domain.VerificationStep{
			domain.StepLicenseFront,
			domain.StepLicenseBack,
			domain.StepSelfie,
		}, steps)
	})

	t.Run("relative order is preserved and input untouched", func(t *testing.T) {
		before := append([]domain.VerificationStep{}, full...)
		_ = ComputeEffectiveSteps(full, Preconditions{PhoneVerified: true})
		assert.Equal(t, before, full)
	})

	t.Run("idempotent", func(t *testing.T) {
		pre := Preconditions{PhoneVerified: true}
		once := ComputeEffectiveSteps(full, pre)
		twice := ComputeEffectiveSteps(once, pre)
		assert.Equal(t, once, twice)
	})
}

func TestStepComplete(t *testing.T) {
	evidence := map[domain.VerificationStep]string{
		domain.StepLicenseFront: "data",
	}

	assert.True(t, StepComplete(domain.StepLicenseFront, evidence, domain.OtpChallengeState{}))
	assert.False(t, StepComplete(domain.StepLicenseBack, evidence, domain.OtpChallengeState{}))
	assert.False(t, StepComplete(domain.StepPhone, evidence, domain.OtpChallengeState{State: domain.OtpSent}))
	assert.True(t, StepComplete(domain.StepPhone, evidence, domain.OtpChallengeState{State: domain.OtpVerified}))
}

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		name     string
		steps    []domain.VerificationStep
		position int
		evidence map[domain.VerificationStep]string
		otp      domain.OtpChallengeState
		want     bool
	}{
		{
			name:     "capture step without evidence",
			steps:    domain.AllVerificationSteps(),
			position: 0,
			evidence: map[domain.VerificationStep]string{},
			want:     false,
		},
		{
			name:     "capture step with evidence",
			steps:    domain.AllVerificationSteps(),
			position: 0,
			evidence: map[domain.VerificationStep]string{domain.StepLicenseFront: "img"},
			want:     true,
		},
		{
			name:     "evidence for another step does not count",
			steps:    domain.AllVerificationSteps(),
			position: 1,
			evidence: map[domain.VerificationStep]string{domain.StepLicenseFront: "img"},
			want:     false,
		},
		{
			name:     "phone step requires verified challenge",
			steps:    domain.AllVerificationSteps(),
			position: 3,
			evidence: map[domain.VerificationStep]string{},
			otp:      domain.OtpChallengeState{State: domain.OtpSent, PhoneNumber: "+971500000001"},
			want:     false,
		},
		{
			name:     "phone step with verified challenge",
			steps:    domain.AllVerificationSteps(),
			position: 3,
			evidence: map[domain.VerificationStep]string{},
			otp:      domain.OtpChallengeState{State: domain.OtpVerified, PhoneNumber: "+971500000001"},
			want:     true,
		},
		{
			name:     "three-step list ends on selfie",
			steps:    []domain.VerificationStep{domain.StepLicenseFront, domain.StepLicenseBack, domain.StepSelfie},
			position: 2,
			evidence: map[domain.VerificationStep]string{domain.StepSelfie: "img"},
			want:     true,
		},
		{
			name:     "position out of range",
			steps:    domain.AllVerificationSteps(),
			position: 4,
			evidence: map[domain.VerificationStep]string{},
			want:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &domain.WorkflowSession{
				EffectiveSteps: tc.steps,
				Position:       tc.position,
				Evidence:       tc.evidence,
				Otp:            tc.otp,
			}
			assert.Equal(t, tc.want, CanAdvance(session))
		})
	}
}

func TestProgressUsesEffectiveLength(t *testing.T) {
	four := &domain.WorkflowSession{EffectiveSteps: domain.AllVerificationSteps(), Position: 1}
	assert.InDelta(t, 0.5, four.Progress(), 1e-9)

	three := &domain.WorkflowSession{
		EffectiveSteps: []domain.VerificationStep{domain.StepLicenseFront, domain.StepLicenseBack, domain.StepSelfie},
		Position:       2,
	}
	assert.InDelta(t, 1.0, three.Progress(), 1e-9)
}
