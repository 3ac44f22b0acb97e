package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
)

var (
	// ErrInvalidCredentials is returned by Login when the service redirects
	// back to the login page.
	ErrInvalidCredentials = errors.New("authsdk: invalid credentials")

	// ErrNotAuthenticated is returned when the session cookie is missing,
	// expired or rejected.
	ErrNotAuthenticated = errors.New("authsdk: not authenticated")
)

// APIError is a JSON error response from the service.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// parseErrorResponse turns a non-success response into an *APIError.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
