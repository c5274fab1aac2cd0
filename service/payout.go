package service

import (
	"context"
	"os"
	"time"

	"yayago/domain"
)

const accountSessionLockTTL = 30 * time.Second

type payoutService struct {
	provider       domain.PayoutProvider
	state          domain.PayoutStateRepository
	locks          domain.LockRepository
	supportContact string
}

func NewPayoutService(provider domain.PayoutProvider, state domain.PayoutStateRepository, locks domain.LockRepository) domain.PayoutUseCase {
	return &payoutService{
		provider:       provider,
		state:          state,
		locks:          locks,
		supportContact: os.Getenv("PAYOUT_SUPPORT_CONTACT"),
	}
}

// view maps the externally-owned status to the local UI variant. The
// flow never "fixes" the status locally, it only picks a branch.
func (s *payoutService) view(status *domain.PayoutAccountStatus, unavailable bool) *domain.PayoutAccountView {
	v := &domain.PayoutAccountView{
		Account:        *status,
		PayoutEligible: status.FullyEnabled() && status.PayoutsEnabled,
	}
	switch {
	case unavailable:
		// Terminal: rendered without a retry affordance.
		v.Mode = domain.PayoutModeUnavailable
		v.SupportContact = s.supportContact
	case status.FullyEnabled():
		v.Mode = domain.PayoutModeEmbedded
	default:
		v.Mode = domain.PayoutModeOnboarding
	}
	return v
}

func (s *payoutService) Account(ctx context.Context, orgUUID string) (*domain.PayoutAccountView, error) {
	unavailable, err := s.state.IsCapabilityUnavailable(ctx, orgUUID)
	if err != nil {
		return nil, err
	}
	if unavailable {
		return s.view(&domain.PayoutAccountStatus{Status: domain.PayoutStatusNoAccount}, true), nil
	}

	status, err := s.provider.GetAccountStatus(ctx, orgUUID)
	if err != nil {
		return nil, err
	}
	return s.view(status, false), nil
}

func (s *payoutService) OnboardingLink(ctx context.Context, orgUUID, refreshURL, returnURL string) (string, error) {
	unavailable, err := s.state.IsCapabilityUnavailable(ctx, orgUUID)
	if err != nil {
		return "", err
	}
	if unavailable {
		return "", domain.CapabilityUnavailableError(nil)
	}

	url, err := s.provider.CreateOnboardingLink(ctx, orgUUID, refreshURL, returnURL)
	if err != nil {
		if domain.KindOf(err) == domain.KindCapabilityUnavailable {
			// Sticky until the underlying capability changes.
			_ = s.state.MarkCapabilityUnavailable(ctx, orgUUID)
		}
		return "", err
	}

	_ = s.state.ClearCapabilityUnavailable(ctx, orgUUID)
	return url, nil
}

// AccountSession returns the cached embedded-session handle when one is
// live; initialization happens at most once while the handle is cached
// and never concurrently.
func (s *payoutService) AccountSession(ctx context.Context, orgUUID string) (string, error) {
	unavailable, err := s.state.IsCapabilityUnavailable(ctx, orgUUID)
	if err != nil {
		return "", err
	}
	if unavailable {
		return "", domain.CapabilityUnavailableError(nil)
	}

	if secret, err := s.state.GetAccountSession(ctx, orgUUID); err != nil {
		return "", err
	} else if secret != "" {
		return secret, nil
	}

	status, err := s.provider.GetAccountStatus(ctx, orgUUID)
	if err != nil {
		return "", err
	}
	if !status.FullyEnabled() {
		return "", domain.ErrAccountNotEnabled
	}

	acquired, err := s.locks.Acquire(ctx, "payoutsession:"+orgUUID, accountSessionLockTTL)
	if err != nil {
		return "", err
	}
	if !acquired {
		return "", domain.ErrOperationInFlight
	}
	defer s.locks.Release(ctx, "payoutsession:"+orgUUID)

	secret, err := s.provider.CreateAccountSession(ctx, orgUUID)
	if err != nil {
		return "", err
	}
	if err := s.state.SaveAccountSession(ctx, orgUUID, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// Refresh re-reads the provider status. After an onboarding return
// callback this is the only source of truth; client-side success is
// never assumed. A sticky capability-unavailable marker survives it.
func (s *payoutService) Refresh(ctx context.Context, orgUUID string) (*domain.PayoutAccountView, error) {
	status, err := s.provider.GetAccountStatus(ctx, orgUUID)
	if err != nil {
		return nil, err
	}

	// A stale embedded-session handle is useless once the account is no
	// longer fully enabled.
	if !status.FullyEnabled() {
		_ = s.state.DeleteAccountSession(ctx, orgUUID)
	}

	unavailable, err := s.state.IsCapabilityUnavailable(ctx, orgUUID)
	if err != nil {
		return nil, err
	}
	return s.view(status, unavailable), nil
}
