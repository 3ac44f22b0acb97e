package domain

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	OutcomeRejected OutcomeKind = iota
	OutcomeAuthenticated
)

func (k OutcomeKind) String() string {
	if k == OutcomeAuthenticated {
		return "authenticated"
	}
	return "rejected"
}

// Reason explains a rejection. It is for logs and metrics only and must never
// be shown to the client.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonEmptyPassword      Reason = "empty_password"
	ReasonInvalidCredentials Reason = "invalid_credentials"
)

// Outcome is the result of resolving a login attempt. The zero value is a
// rejection.
type Outcome struct {
	Kind    OutcomeKind
	Account Account // set only when Kind is OutcomeAuthenticated
	Reason  Reason  // set only when Kind is OutcomeRejected
}

// Authenticated returns a successful outcome bound to a.
func Authenticated(a Account) Outcome {
	return Outcome{Kind: OutcomeAuthenticated, Account: a}
}

// Rejected returns a failed outcome.
func Rejected(reason Reason) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

func (o Outcome) IsAuthenticated() bool { return o.Kind == OutcomeAuthenticated }
