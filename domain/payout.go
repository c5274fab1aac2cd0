package domain

import "context"

// Payout account status is owned entirely by the external provider. The
// local flow never mutates it, only reacts to it. Internal representation
// is decoupled from the provider's wire format.
const (
	PayoutStatusNoAccount  = "no_account"
	PayoutStatusPending    = "pending"
	PayoutStatusRestricted = "restricted"
	PayoutStatusDisabled   = "disabled"
	PayoutStatusEnabled    = "enabled"

	PayoutModeOnboarding  = "onboarding"
	PayoutModeEmbedded    = "embedded"
	PayoutModeUnavailable = "unavailable"
)

type PayoutAccountStatus struct {
	HasAccount     bool   `json:"has_account"`
	Status         string `json:"status"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

// FullyEnabled reports whether the embedded dashboard mode applies.
func (s PayoutAccountStatus) FullyEnabled() bool {
	return s.HasAccount && s.Status == PayoutStatusEnabled
}

// PayoutAccountView is the local UI variant derived from the external
// status. Mode is a pure mapping, never a locally "fixed" status.
type PayoutAccountView struct {
	Mode           string              `json:"mode"`
	Account        PayoutAccountStatus `json:"account"`
	PayoutEligible bool                `json:"payout_eligible"`
	SupportContact string              `json:"support_contact,omitempty"`
}

type PayoutProvider interface {
	GetAccountStatus(ctx context.Context, orgUUID string) (*PayoutAccountStatus, error)
	CreateOnboardingLink(ctx context.Context, orgUUID, refreshURL, returnURL string) (string, error)
	CreateAccountSession(ctx context.Context, orgUUID string) (string, error)
}

// PayoutStateRepository keeps the small amount of provisioning state the
// flow owns locally: the cached embedded-session handle and the sticky
// capability-unavailable marker.
type PayoutStateRepository interface {
	GetAccountSession(ctx context.Context, orgUUID string) (string, error) // "", nil when absent
	SaveAccountSession(ctx context.Context, orgUUID, clientSecret string) error
	DeleteAccountSession(ctx context.Context, orgUUID string) error
	MarkCapabilityUnavailable(ctx context.Context, orgUUID string) error
	ClearCapabilityUnavailable(ctx context.Context, orgUUID string) error
	IsCapabilityUnavailable(ctx context.Context, orgUUID string) (bool, error)
}

type PayoutUseCase interface {
	Account(ctx context.Context, orgUUID string) (*PayoutAccountView, error)
	OnboardingLink(ctx context.Context, orgUUID, refreshURL, returnURL string) (string, error)
	AccountSession(ctx context.Context, orgUUID string) (string, error)
	Refresh(ctx context.Context, orgUUID string) (*PayoutAccountView, error)
}
