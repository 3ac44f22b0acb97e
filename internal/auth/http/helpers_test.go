package http_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	doormanhttp "github.com/aussiebroadwan/doorman/internal/auth/http"
	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	issuer = "doorman-test"

	localUsername = "local.user"
	localPassword = "local-secret"

	ldapUsername = "ldap.user"
	ldapPassword = "directory-secret"
)

type harness struct {
	router   *doormanhttp.Router
	store    store.Store
	registry *prometheus.Registry
	server   *httptest.Server
	client   *authsdk.SDKClient
}

// newHarness wires a router over an in-memory store and a static directory
// holding one LDAP principal. configure runs before the routes are applied.
func newHarness(t *testing.T, configure ...func(*doormanhttp.Router)) *harness {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	return newHarnessWithStore(t, s, configure...)
}

func newHarnessWithStore(t *testing.T, st store.Store, configure ...func(*doormanhttp.Router)) *harness {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("http-test", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	dir := directory.NewStatic(map[string]directory.Principal{
		ldapUsername: {Password: ldapPassword, DisplayName: "LDAP User"},
	})

	r := doormanhttp.NewRouter(keys, "test", st, slogx.Discard())
	r.LoginService = service.NewLoginService(st, dir, time.Second, m)
	r.Sessions = session.NewManager(signer, jwtx.NewVerifierEdDSA(keys, issuer, 0), session.Config{Issuer: issuer, TTL: time.Hour})
	r.Gatherer = reg
	for _, fn := range configure {
		fn(r)
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &harness{
		router:   r,
		store:    st,
		registry: reg,
		server:   srv,
		client:   authsdk.NewSDKClient(srv.URL),
	}
}

func (h *harness) registerLocal(t *testing.T) domain.Account {
	t.Helper()
	svc := &service.AccountService{Store: h.store}
	acct, err := svc.Register(context.Background(), localUsername, localPassword)
	require.NoError(t, err)
	return acct
}

func (h *harness) accountCount(t *testing.T) int64 {
	t.Helper()
	n, err := h.store.Accounts().CountAccounts(context.Background())
	require.NoError(t, err)
	return n
}

// brokenStore fails every account operation while still answering pings.
type brokenStore struct {
	store.Store
}

var errDiskGone = errors.New("disk I/O error")

func (brokenStore) Accounts() store.Accounts { return brokenAccounts{} }

func (brokenStore) Ping(context.Context) error { return errDiskGone }

type brokenAccounts struct {
	store.Accounts
}

func (brokenAccounts) GetAccountByUsername(context.Context, string) (domain.Account, error) {
	return domain.Account{}, errDiskGone
}
