/*
Package authsdk provides a client SDK for the doorman login service.

# Overview

doorman authenticates browser style form logins and keeps the result in a
signed session cookie. The SDK drives the same HTTP surface a browser would,
which makes it useful for smoke tests, health probes and scripts.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (health probes, logging in)
  - Session: operations that need the session cookie

	client := authsdk.NewSDKClient("https://doorman.example.com")

	// Check service health
	health, err := client.GetReadiness(ctx)

	// Log in with a local or directory account
	sess, err := client.Login(ctx, "alice", "s3cret")
	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// the service redirected back to the login page
	}

	home, err := sess.Home(ctx)
	err = sess.Logout(ctx)

# Error Handling

Failed logins are not errors on the wire; the service redirects back to the
login page. Login reports that case as ErrInvalidCredentials. JSON error
responses (rate limiting, store outages) are returned as *APIError:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		// back off
	}
*/
package authsdk
