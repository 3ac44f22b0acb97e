package authsdk

// ErrorResponse is the JSON body of every error the service returns.
type ErrorResponse struct {
	// Error is a short machine readable code (e.g., "server_error")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description,omitempty"`
}

// HomeResponse is the identity bound to a session, returned by GET /home.
type HomeResponse struct {
	// AccountID is the ULID of the signed in account
	AccountID string `json:"account_id"`

	// Username is the name the account logged in with
	Username string `json:"username"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains the status of individual components (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the credential store connection status
	Database string `json:"database"`

	// Signer indicates the session signing capability status
	Signer string `json:"signer"`
}
