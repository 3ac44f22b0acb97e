package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotReady is returned by GetReadiness when a dependency check fails.
// The accompanying HealthResponse says which one.
var ErrNotReady = errors.New("authsdk: service not ready")

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}

	return &health, nil
}

// GetReadiness checks if the service is ready. A degraded service returns
// both the decoded checks and ErrNotReady.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusServiceUnavailable {
		var health HealthResponse
		if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
			return nil, err
		}
		return &health, nil
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &health, ErrNotReady
}
