package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request without the session cookie.
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// doSessionRequest performs a request carrying the session cookie.
func (s *Session) doSessionRequest(ctx context.Context, method, path string) (*http.Response, error) {
	s.mu.RLock()
	cookie := s.cookie
	s.mu.RUnlock()

	if cookie == nil {
		return nil, ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// decodeJSON decodes a JSON response into the target interface.
// Returns an *APIError if the response status differs from expectedStatus.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		if apiErr := parseErrorResponse(resp, bodyBytes); apiErr != nil {
			return apiErr
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkRedirect returns the Location of a 302 response, or a typed error.
func checkRedirect(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if apiErr := parseErrorResponse(resp, bodyBytes); apiErr != nil {
			return "", apiErr
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return resp.Header.Get("Location"), nil
}
