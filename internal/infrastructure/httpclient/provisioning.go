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

type ProvisioningClient struct {
	baseURL string
	client  *http.Client
}

func NewProvisioningClient(baseURL string, timeout time.Duration) *ProvisioningClient {
	if timeout <= 0 {
		timeout = _defaultTimeout
	}

	return &ProvisioningClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *ProvisioningClient) TenantStatus(ctx context.Context, tenantID uuid.UUID) (*infrastructure.TenantStatus, error) {
	url := fmt.Sprintf("%s/v1/tenants/%s/status", c.baseURL, tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ProvisioningClient - TenantStatus - http.NewRequestWithContext: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ProvisioningClient - TenantStatus - c.client.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ProvisioningClient - TenantStatus - unexpected status %d", resp.StatusCode)
	}

	var status infrastructure.TenantStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("ProvisioningClient - TenantStatus - json.Decode: %w", err)
	}

	return &status, nil
}
