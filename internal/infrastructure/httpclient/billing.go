// Package httpclient implements the synchronous, best-effort status
// verification calls between services. They are informational only: the
// state machine is driven by events, never by these responses.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dnsokolov/saas-onboarding/internal/infrastructure"
	"github.com/google/uuid"
)

const _defaultTimeout = 3 * time.Second

type BillingClient struct {
	baseURL string
	client  *http.Client
}

func NewBillingClient(baseURL string, timeout time.Duration) *BillingClient {
	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	return &BillingClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *BillingClient) SubscriptionStatus(ctx context.Context, subscriptionID uuid.UUID) (*infrastructure.SubscriptionStatus, error) {
	url := fmt.Sprintf("%s/v1/subscriptions/%s/status", c.baseURL, subscriptionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("BillingClient - SubscriptionStatus - http.NewRequestWithContext: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("BillingClient - SubscriptionStatus - c.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("BillingClient - SubscriptionStatus - unexpected status %d", resp.StatusCode)
	}

	var status infrastructure.SubscriptionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("BillingClient - SubscriptionStatus - json.Decode: %w", err)
	}

	return &status, nil
}
