package service

import (
	"context"
	"testing"

	"yayago/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrgUUID = "9a2e7d40-1b3c-4f5a-8e6d-7c8b9a0f1e22"

func enabledAccount() *domain.PayoutAccountStatus {
	return &domain.PayoutAccountStatus{
		HasAccount:     true,
		Status:         domain.PayoutStatusEnabled,
		ChargesEnabled: true,
		PayoutsEnabled: true,
	}
}

type payoutFixture struct {
	provider *fakePayoutProvider
	state    *fakePayoutStateRepo
	locks    *fakeLockRepo
	svc      domain.PayoutUseCase
}

func newPayoutFixture(status *domain.PayoutAccountStatus) *payoutFixture {
	f := &payoutFixture{
		provider: &fakePayoutProvider{status: status, link: "https://onboarding.example.com/x", secret: "sess_secret_1"},
		state:    newFakePayoutStateRepo(),
		locks:    newFakeLockRepo(),
	}
	f.svc = NewPayoutService(f.provider, f.state, f.locks)
	return f
}

func TestAccountModeMapping(t *testing.T) {
	cases := []struct {
		name         string
		status       *domain.PayoutAccountStatus
		wantMode     string
		wantEligible bool
	}{
		{
			name:     "no account yet",
			status:   &domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount},
			wantMode: domain.PayoutModeOnboarding,
		},
		{
			name:     "onboarding pending",
			status:   &domain.PayoutAccountStatus{HasAccount: true, Status: domain.PayoutStatusPending},
			wantMode: domain.PayoutModeOnboarding,
		},
		{
			name:     "restricted account falls back to onboarding",
			status:   &domain.PayoutAccountStatus{HasAccount: true, Status: domain.PayoutStatusRestricted},
			wantMode: domain.PayoutModeOnboarding,
		},
		{
			name:         "fully enabled",
			status:       enabledAccount(),
			wantMode:     domain.PayoutModeEmbedded,
			wantEligible: true,
		},
		{
			name:     "enabled account with payouts switched off",
			status:   &domain.PayoutAccountStatus{HasAccount: true, Status: domain.PayoutStatusEnabled, ChargesEnabled: true},
			wantMode: domain.PayoutModeEmbedded,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPayoutFixture(tc.status)
			view, err := f.svc.Account(context.Background(), testOrgUUID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, view.Mode)
			assert.Equal(t, tc.wantEligible, view.PayoutEligible)
			assert.Equal(t, *tc.status, view.Account)
		})
	}
}

func TestAccountSessionInitializedOnceWhileCached(t *testing.T) {
	f := newPayoutFixture(enabledAccount())
	ctx := context.Background()

	secret, err := f.svc.AccountSession(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, "sess_secret_1", secret)
	assert.Equal(t, 1, f.provider.sessionCalls)

	// Repeated opens while the handle is cached never hit the provider,
	// not even for a status read.
	for i := 0; i < 3; i++ {
		again, err := f.svc.AccountSession(ctx, testOrgUUID)
		require.NoError(t, err)
		assert.Equal(t, secret, again)
	}
	assert.Equal(t, 1, f.provider.sessionCalls)
	assert.Equal(t, 1, f.provider.statusCalls)
}

func TestAccountSessionRequiresEnabledAccount(t *testing.T) {
	f := newPayoutFixture(&domain.PayoutAccountStatus{HasAccount: true, Status: domain.PayoutStatusPending})

	_, err := f.svc.AccountSession(context.Background(), testOrgUUID)
	assert.ErrorIs(t, err, domain.ErrAccountNotEnabled)
	assert.Zero(t, f.provider.sessionCalls)
}

func TestAccountSessionInFlightGuard(t *testing.T) {
	f := newPayoutFixture(enabledAccount())
	f.locks.held["payoutsession:"+testOrgUUID] = true

	_, err := f.svc.AccountSession(context.Background(), testOrgUUID)
	assert.ErrorIs(t, err, domain.ErrOperationInFlight)
	assert.Zero(t, f.provider.sessionCalls)
}

func TestOnboardingLink(t *testing.T) {
	t.Run("returns the provider link", func(t *testing.T) {
		f := newPayoutFixture(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount})
		url, err := f.svc.OnboardingLink(context.Background(), testOrgUUID, "https://app/r", "https://app/c")
		require.NoError(t, err)
		assert.Equal(t, "https://onboarding.example.com/x", url)
	})

	t.Run("capability failure marks the org sticky", func(t *testing.T) {
		f := newPayoutFixture(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount})
		f.provider.linkErr = domain.CapabilityUnavailableError(nil)

		_, err := f.svc.OnboardingLink(context.Background(), testOrgUUID, "https://app/r", "https://app/c")
		assert.Equal(t, domain.KindCapabilityUnavailable, domain.KindOf(err))
		assert.False(t, domain.IsRetryable(err))
		assert.True(t, f.state.unavailable[testOrgUUID])
	})

	t.Run("transient network failure does not mark", func(t *testing.T) {
		f := newPayoutFixture(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount})
		f.provider.linkErr = domain.NetworkFailureError(assert.AnError)

		_, err := f.svc.OnboardingLink(context.Background(), testOrgUUID, "https://app/r", "https://app/c")
		assert.Equal(t, domain.KindNetworkFailure, domain.KindOf(err))
		assert.True(t, domain.IsRetryable(err))
		assert.False(t, f.state.unavailable[testOrgUUID])
	})
}

func TestCapabilityUnavailableIsSticky(t *testing.T) {
	f := newPayoutFixture(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount})
	ctx := context.Background()

	f.provider.linkErr = domain.CapabilityUnavailableError(nil)
	_, err := f.svc.OnboardingLink(ctx, testOrgUUID, "https://app/r", "https://app/c")
	require.Equal(t, domain.KindCapabilityUnavailable, domain.KindOf(err))
	linkCalls := f.provider.linkCalls

	// Subsequent link requests short-circuit without touching the provider.
	_, err = f.svc.OnboardingLink(ctx, testOrgUUID, "https://app/r", "https://app/c")
	assert.Equal(t, domain.KindCapabilityUnavailable, domain.KindOf(err))
	assert.Equal(t, linkCalls, f.provider.linkCalls)

	// So does opening an embedded session.
	_, err = f.svc.AccountSession(ctx, testOrgUUID)
	assert.Equal(t, domain.KindCapabilityUnavailable, domain.KindOf(err))

	// Account renders the terminal variant without a provider read.
	statusCalls := f.provider.statusCalls
	view, err := f.svc.Account(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutModeUnavailable, view.Mode)
	assert.Equal(t, statusCalls, f.provider.statusCalls)

	// Refresh re-reads the status but the marker survives it.
	view, err = f.svc.Refresh(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutModeUnavailable, view.Mode)
	assert.True(t, f.state.unavailable[testOrgUUID])
}

func TestSuccessfulLinkClearsMarker(t *testing.T) {
	f := newPayoutFixture(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount})
	ctx := context.Background()

	// Marker set out-of-band, then the capability comes back.
	require.NoError(t, f.state.MarkCapabilityUnavailable(ctx, "other-org"))
	url, err := f.svc.OnboardingLink(ctx, "other-org", "https://app/r", "https://app/c")

	// Sticky check fires before the provider call, so the first request
	// after the marker is set still refuses.
	assert.Equal(t, domain.KindCapabilityUnavailable, domain.KindOf(err))
	assert.Empty(t, url)

	require.NoError(t, f.state.ClearCapabilityUnavailable(ctx, "other-org"))
	url, err = f.svc.OnboardingLink(ctx, "other-org", "https://app/r", "https://app/c")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.False(t, f.state.unavailable["other-org"])
}

func TestRefreshDropsStaleSessionHandle(t *testing.T) {
	f := newPayoutFixture(enabledAccount())
	ctx := context.Background()

	_, err := f.svc.AccountSession(ctx, testOrgUUID)
	require.NoError(t, err)
	require.NotEmpty(t, f.state.sessions[testOrgUUID])

	// Provider flips the account out of the enabled state.
	f.provider.status = &domain.PayoutAccountStatus{HasAccount: true, Status: domain.PayoutStatusRestricted}

	view, err := f.svc.Refresh(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutModeOnboarding, view.Mode)
	assert.Empty(t, f.state.sessions[testOrgUUID])
}

func TestRefreshKeepsLiveSessionWhileEnabled(t *testing.T) {
	f := newPayoutFixture(enabledAccount())
	ctx := context.Background()

	secret, err := f.svc.AccountSession(ctx, testOrgUUID)
	require.NoError(t, err)

	view, err := f.svc.Refresh(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutModeEmbedded, view.Mode)

	again, err := f.svc.AccountSession(ctx, testOrgUUID)
	require.NoError(t, err)
	assert.Equal(t, secret, again)
	assert.Equal(t, 1, f.provider.sessionCalls)
}
