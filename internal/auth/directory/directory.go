// Package directory authenticates usernames against an external identity
// directory. Every implementation is fail-closed: network and protocol
// errors come back as a Result with OK unset, indistinguishable from a wrong
// password.
package directory

import "context"

// Result is the outcome of a directory authentication.
type Result struct {
	// OK is set when the directory accepted the password.
	OK bool

	// Exists is set when the directory confirmed the username is a real
	// principal, whether or not the password was right. Implementations
	// that cannot tell leave it unset.
	Exists bool

	DN          string
	DisplayName string
	Email       string
	Attributes  map[string][]string
}

// Directory verifies a username/password pair. Implementations must return
// the zero Result for an empty password without contacting the directory.
type Directory interface {
	Authenticate(ctx context.Context, username, password string) Result
}

// Disabled is a Directory for deployments with only local accounts.
type Disabled struct{}

func (Disabled) Authenticate(context.Context, string, string) Result { return Result{} }
