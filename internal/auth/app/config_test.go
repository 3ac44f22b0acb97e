package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doorman.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, "doorman.db", cfg.Database.DSN)
	require.Equal(t, DirectoryDisabled, cfg.Directory.Mode)
	require.Equal(t, 5*time.Second, cfg.Directory.Timeout)
	require.Equal(t, 12*time.Hour, cfg.Session.TTL)
	require.Equal(t, 5, cfg.RateLimit.LoginRequests)
	require.Equal(t, time.Minute, cfg.RateLimit.LoginWindow)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DOORMAN_PORT", "9090")
	t.Setenv("DOORMAN_DATABASE_DRIVER", "postgres")
	t.Setenv("DOORMAN_DATABASE_DSN", "postgres://doorman@localhost/doorman")
	t.Setenv("DOORMAN_DIRECTORY_MODE", "ldap")
	t.Setenv("DOORMAN_DIRECTORY_TIMEOUT", "2s")
	t.Setenv("DOORMAN_DIRECTORY_LDAP_URL", "ldaps://ldap.example.org")
	t.Setenv("DOORMAN_DIRECTORY_LDAP_USER_DN_TEMPLATE", "uid=%s,ou=people,dc=example,dc=org")
	t.Setenv("DOORMAN_SESSION_SECURE", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, DirectoryLDAP, cfg.Directory.Mode)
	require.Equal(t, 2*time.Second, cfg.Directory.Timeout)
	require.Equal(t, "ldaps://ldap.example.org", cfg.Directory.LDAP.URL)
	require.True(t, cfg.Session.Secure)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
env: staging
log:
  level: debug
  format: text
directory:
  mode: ldap
  ldap:
    url: ldap://ldap.example.org
    start_tls: true
    bind_dn: cn=doorman,dc=example,dc=org
    bind_password: service-secret
    search_base: ou=people,dc=example,dc=org
    search_filter: (&(objectClass=person)(uid={}))
rate_limit:
  login_requests: 10
  login_window: 30s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, "text", cfg.Log.Format)
	require.True(t, cfg.Directory.LDAP.StartTLS)
	require.Equal(t, "ou=people,dc=example,dc=org", cfg.Directory.LDAP.SearchBase)
	require.Equal(t, "cn", cfg.Directory.LDAP.DisplayNameAttr)
	require.Equal(t, 10, cfg.RateLimit.LoginRequests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.LoginWindow)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "port: 7000\n")
	t.Setenv("DOORMAN_PORT", "7001")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 7001, cfg.Port)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfigStaticDirectory(t *testing.T) {
	path := writeConfig(t, `
directory:
  mode: static
  static:
    bob:
      password: directory-secret
      display_name: Bob
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, StaticPrincipal{Password: "directory-secret", DisplayName: "Bob"}, cfg.Directory.Static["bob"])
}

func TestValidateRejects(t *testing.T) {
	base, err := LoadConfig("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"unknown directory mode", func(c *Config) { c.Directory.Mode = "kerberos" }},
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero directory timeout", func(c *Config) { c.Directory.Timeout = 0 }},
		{"ldap without url", func(c *Config) {
			c.Directory.Mode = DirectoryLDAP
			c.Directory.LDAP.UserDNTemplate = "uid=%s,dc=example,dc=org"
		}},
		{"ldap without dn template or bind dn", func(c *Config) {
			c.Directory.Mode = DirectoryLDAP
			c.Directory.LDAP.URL = "ldap://ldap.example.org"
		}},
		{"ldap search without base", func(c *Config) {
			c.Directory.Mode = DirectoryLDAP
			c.Directory.LDAP.URL = "ldap://ldap.example.org"
			c.Directory.LDAP.BindDN = "cn=doorman,dc=example,dc=org"
		}},
		{"ldap filter without placeholder", func(c *Config) {
			c.Directory.Mode = DirectoryLDAP
			c.Directory.LDAP.URL = "ldap://ldap.example.org"
			c.Directory.LDAP.BindDN = "cn=doorman,dc=example,dc=org"
			c.Directory.LDAP.SearchBase = "dc=example,dc=org"
			c.Directory.LDAP.SearchFilter = "(uid=alice)"
		}},
		{"static without principals", func(c *Config) { c.Directory.Mode = DirectoryStatic }},
		{"static principal without password", func(c *Config) {
			c.Directory.Mode = DirectoryStatic
			c.Directory.Static = map[string]StaticPrincipal{"bob": {}}
		}},
		{"static in prod", func(c *Config) {
			c.Env = "prod"
			c.Directory.Mode = DirectoryStatic
			c.Directory.Static = map[string]StaticPrincipal{"bob": {Password: "pw"}}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.Directory.Static = nil
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, ":memory:", sqliteDSN(":memory:"))
	require.Equal(t, "file:x.db?mode=ro", sqliteDSN("file:x.db?mode=ro"))
	require.Equal(t, "file:data/doorman.db?_pragma=journal_mode(WAL)", sqliteDSN("data/doorman.db"))
}
