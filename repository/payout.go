package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"yayago/domain"

	"github.com/redis/go-redis/v9"
)

const payoutCallTimeout = 15 * time.Second

// payoutProviderClient talks to the external payout provider over its
// REST API. The internal status representation stays decoupled from the
// provider's wire format so either side can evolve independently.
type payoutProviderClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPayoutProviderClient() domain.PayoutProvider {
	return &payoutProviderClient{
		baseURL: os.Getenv("PAYOUT_PROVIDER_URL"),
		apiKey:  os.Getenv("PAYOUT_PROVIDER_API_KEY"),
		client:  &http.Client{Timeout: payoutCallTimeout},
	}
}

type providerAccountResponse struct {
	HasAccount     bool   `json:"has_account"`
	Status         string `json:"status"`
	ChargesEnabled bool   `json:"charges_enabled"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type providerErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *payoutProviderClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, payoutCallTimeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.NetworkFailureError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var perr providerErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&perr); err == nil && perr.Error.Code != "" {
		// Regional unavailability is terminal, not a transient failure.
		if perr.Error.Code == "capability_unavailable" {
			return domain.CapabilityUnavailableError(errors.New(perr.Error.Message))
		}
		return domain.NetworkFailureError(fmt.Errorf("provider error %s: %s", perr.Error.Code, perr.Error.Message))
	}
	return domain.NetworkFailureError(fmt.Errorf("provider returned status %d", resp.StatusCode))
}

func (p *payoutProviderClient) GetAccountStatus(ctx context.Context, orgUUID string) (*domain.PayoutAccountStatus, error) {
	var out providerAccountResponse
	if err := p.do(ctx, http.MethodGet, "/v1/accounts/"+orgUUID, nil, &out); err != nil {
		return nil, err
	}

	status := out.Status
	if !out.HasAccount {
		status = domain.PayoutStatusNoAccount
	}
	return &domain.PayoutAccountStatus{
		HasAccount:     out.HasAccount,
		Status:         status,
		ChargesEnabled: out.ChargesEnabled,
		PayoutsEnabled: out.PayoutsEnabled,
	}, nil
}

func (p *payoutProviderClient) CreateOnboardingLink(ctx context.Context, orgUUID, refreshURL, returnURL string) (string, error) {
	body := map[string]string{
		"refresh_url": refreshURL,
		"return_url":  returnURL,
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/accounts/"+orgUUID+"/onboarding-link", body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (p *payoutProviderClient) CreateAccountSession(ctx context.Context, orgUUID string) (string, error) {
	var out struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/accounts/"+orgUUID+"/session", nil, &out); err != nil {
		return "", err
	}
	return out.ClientSecret, nil
}

// payoutStateRedisRepository holds the provisioning state owned locally:
// the cached embedded-session handle and the sticky capability marker.
type payoutStateRedisRepository struct {
	client *redis.Client
}

func NewPayoutStateRedisRepository(client *redis.Client) domain.PayoutStateRepository {
	return &payoutStateRedisRepository{client: client}
}

// Embedded session handles are short-lived by provider contract.
const accountSessionTTL = 55 * time.Minute

func (r *payoutStateRedisRepository) GetAccountSession(ctx context.Context, orgUUID string) (string, error) {
	secret, err := r.client.Get(ctx, "payoutsession:"+orgUUID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return secret, err
}

func (r *payoutStateRedisRepository) SaveAccountSession(ctx context.Context, orgUUID, clientSecret string) error {
	return r.client.Set(ctx, "payoutsession:"+orgUUID, clientSecret, accountSessionTTL).Err()
}

func (r *payoutStateRedisRepository) DeleteAccountSession(ctx context.Context, orgUUID string) error {
	return r.client.Del(ctx, "payoutsession:"+orgUUID).Err()
}

// No TTL: a manual status refresh must not clear this marker. It is
// cleared only when the provider stops reporting the condition.
func (r *payoutStateRedisRepository) MarkCapabilityUnavailable(ctx context.Context, orgUUID string) error {
	return r.client.Set(ctx, "payoutunavailable:"+orgUUID, 1, 0).Err()
}

func (r *payoutStateRedisRepository) ClearCapabilityUnavailable(ctx context.Context, orgUUID string) error {
	return r.client.Del(ctx, "payoutunavailable:"+orgUUID).Err()
}

func (r *payoutStateRedisRepository) IsCapabilityUnavailable(ctx context.Context, orgUUID string) (bool, error) {
	n, err := r.client.Exists(ctx, "payoutunavailable:"+orgUUID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
