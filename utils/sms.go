package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// SMSGateway delivers OTP messages through the configured HTTP SMS
// provider. Calls are bounded so a hung provider surfaces as a timeout.
type SMSGateway struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

func NewSMSGatewayFromEnv() *SMSGateway {
	return &SMSGateway{
		endpoint: os.Getenv("SMS_GATEWAY_URL"),
		apiKey:   os.Getenv("SMS_GATEWAY_API_KEY"),
		sender:   os.Getenv("SMS_SENDER_ID"),
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *SMSGateway) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{
		"to":     to,
		"from":   g.sender,
		"body":   body,
		"format": "text",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
