package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestZeroOutcomeIsRejected(t *testing.T) {
	var o domain.Outcome
	require.False(t, o.IsAuthenticated())
	require.Equal(t, "rejected", o.Kind.String())
}

func TestAuthenticatedCarriesAccount(t *testing.T) {
	acct := domain.Account{Username: "alice", Origin: domain.OriginLocal}

	o := domain.Authenticated(acct)
	require.True(t, o.IsAuthenticated())
	require.Equal(t, "alice", o.Account.Username)
	require.Equal(t, domain.ReasonNone, o.Reason)
}

func TestRejectedCarriesNoAccount(t *testing.T) {
	o := domain.Rejected(domain.ReasonEmptyPassword)
	require.False(t, o.IsAuthenticated())
	require.Empty(t, o.Account.Username)
	require.Equal(t, domain.ReasonEmptyPassword, o.Reason)
}

func TestOriginValid(t *testing.T) {
	require.True(t, domain.OriginLocal.Valid())
	require.True(t, domain.OriginDirectory.Valid())
	require.False(t, domain.Origin("admin").Valid())
}
