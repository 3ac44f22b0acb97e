package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Directory modes.
const (
	DirectoryDisabled = "disabled"
	DirectoryStatic   = "static"
	DirectoryLDAP     = "ldap"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        `mapstructure:"env" validate:"oneof=dev staging prod"`
	Port                int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period" validate:"gt=0"`
	PepperFile          string        `mapstructure:"pepper_file" validate:"required"`
	TrustProxy          bool          `mapstructure:"trust_proxy"` // honour X-Forwarded-For for rate limit keys

	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Directory DirectoryConfig `mapstructure:"directory"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN          string        `mapstructure:"dsn" validate:"required"`
	MaxConns     int32         `mapstructure:"max_conns" validate:"gte=0"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" validate:"gte=0"`
}

type SessionConfig struct {
	Issuer  string        `mapstructure:"issuer" validate:"required"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	KeyFile string        `mapstructure:"key_file"` // empty generates an ephemeral key
	Secure  bool          `mapstructure:"secure"`
}

type DirectoryConfig struct {
	Mode    string                     `mapstructure:"mode" validate:"oneof=disabled static ldap"`
	Timeout time.Duration              `mapstructure:"timeout" validate:"gt=0"`
	LDAP    LDAPConfig                 `mapstructure:"ldap"`
	Static  map[string]StaticPrincipal `mapstructure:"static"` // keys are usernames; viper lowercases them and splits on dots
}

type LDAPConfig struct {
	URL                string        `mapstructure:"url"`
	StartTLS           bool          `mapstructure:"start_tls"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	CAFile             string        `mapstructure:"ca_file"`
	BindDN             string        `mapstructure:"bind_dn"`
	BindPassword       string        `mapstructure:"bind_password"`
	SearchBase         string        `mapstructure:"search_base"`
	SearchFilter       string        `mapstructure:"search_filter"`
	DisplayNameAttr    string        `mapstructure:"display_name_attribute"`
	EmailAttr          string        `mapstructure:"email_attribute"`
	UserDNTemplate     string        `mapstructure:"user_dn_template"`
	DialTimeout        time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
}

type StaticPrincipal struct {
	Password    string `mapstructure:"password" validate:"required"`
	DisplayName string `mapstructure:"display_name"`
	Email       string `mapstructure:"email"`
}

type RateLimitConfig struct {
	LoginRequests int           `mapstructure:"login_requests" validate:"min=1"`
	LoginWindow   time.Duration `mapstructure:"login_window" validate:"gt=0"`
	ProbeRequests int           `mapstructure:"probe_requests" validate:"min=1"`
	ProbeWindow   time.Duration `mapstructure:"probe_window" validate:"gt=0"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("port", 8080)
	v.SetDefault("shutdown_grace_period", 10*time.Second)
	v.SetDefault("pepper_file", "pepper")
	v.SetDefault("trust_proxy", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.dsn", "doorman.db")
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("database.query_timeout", 0)

	v.SetDefault("session.issuer", "doorman")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.key_file", "")
	v.SetDefault("session.secure", false)

	v.SetDefault("directory.mode", DirectoryDisabled)
	v.SetDefault("directory.timeout", directory.DefaultTimeout)
	v.SetDefault("directory.ldap.url", "")
	v.SetDefault("directory.ldap.start_tls", false)
	v.SetDefault("directory.ldap.insecure_skip_verify", false)
	v.SetDefault("directory.ldap.ca_file", "")
	v.SetDefault("directory.ldap.bind_dn", "")
	v.SetDefault("directory.ldap.bind_password", "")
	v.SetDefault("directory.ldap.search_base", "")
	v.SetDefault("directory.ldap.search_filter", "")
	v.SetDefault("directory.ldap.display_name_attribute", "cn")
	v.SetDefault("directory.ldap.email_attribute", "mail")
	v.SetDefault("directory.ldap.user_dn_template", "")
	v.SetDefault("directory.ldap.dial_timeout", 5*time.Second)

	v.SetDefault("rate_limit.login_requests", 5)
	v.SetDefault("rate_limit.login_window", time.Minute)
	v.SetDefault("rate_limit.probe_requests", 120)
	v.SetDefault("rate_limit.probe_window", time.Minute)
}

// LoadConfig reads defaults, then the optional YAML file at path, then
// DOORMAN_* environment variables (DOORMAN_DATABASE_DSN, DOORMAN_DIRECTORY_LDAP_URL, ...).
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOORMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config file not found: %s", path)
			}
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints and the settings that depend on each other.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Directory.Mode {
	case DirectoryLDAP:
		if _, err := directory.NewLDAP(c.Directory.LDAP.directoryConfig(c.Directory.Timeout), nil); err != nil {
			return err
		}
	case DirectoryStatic:
		if len(c.Directory.Static) == 0 {
			return errors.New("directory: static mode needs at least one principal")
		}
		for name, p := range c.Directory.Static {
			if err := validate.Struct(p); err != nil {
				return fmt.Errorf("directory: static principal %q: %w", name, err)
			}
		}
	}

	if c.Env == "prod" && c.Directory.Mode == DirectoryStatic {
		return errors.New("directory: static mode is not allowed in prod")
	}
	return nil
}

func (l LDAPConfig) directoryConfig(timeout time.Duration) directory.LDAPConfig {
	return directory.LDAPConfig{
		URL:                l.URL,
		StartTLS:           l.StartTLS,
		InsecureSkipVerify: l.InsecureSkipVerify,
		CAFile:             l.CAFile,
		BindDN:             l.BindDN,
		BindPassword:       l.BindPassword,
		UserSearch: directory.UserSearch{
			Base:                 l.SearchBase,
			Filter:               l.SearchFilter,
			DisplayNameAttribute: l.DisplayNameAttr,
			EmailAttribute:       l.EmailAttr,
		},
		UserDNTemplate: l.UserDNTemplate,
		DialTimeout:    l.DialTimeout,
		Timeout:        timeout,
	}
}
