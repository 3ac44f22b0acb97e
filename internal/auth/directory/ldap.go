package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/go-ldap/ldap/v3"
)

// UsernamePlaceholder is replaced by the escaped username in
// UserSearch.Filter.
const UsernamePlaceholder = "{}"

// UserSearch configures search mode.
type UserSearch struct {
	Base   string
	Filter string // e.g. "(&(objectClass=person)(uid={}))"

	DisplayNameAttribute string
	EmailAttribute       string
}

// LDAPConfig configures an LDAP directory.
//
// With BindDN set the client runs in search mode: it binds as the service
// account, searches for the user entry and then binds as that entry. Without
// it the client binds directly as UserDNTemplate with %s replaced by the
// username, and can never report whether a principal exists.
type LDAPConfig struct {
	URL                string
	StartTLS           bool
	InsecureSkipVerify bool
	CAFile             string

	BindDN       string
	BindPassword string
	UserSearch   UserSearch

	UserDNTemplate string

	DialTimeout time.Duration
	Timeout     time.Duration
}

func (c LDAPConfig) searchMode() bool { return c.BindDN != "" }

// Conn is the subset of *ldap.Conn the client uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

// DialFunc opens a connection. The returned func releases it.
type DialFunc func(ctx context.Context, cfg LDAPConfig) (Conn, func(), error)

// LDAP authenticates against an LDAP server.
type LDAP struct {
	cfg  LDAPConfig
	dial DialFunc
}

// NewLDAP returns an LDAP directory. A nil dial uses DialLDAP.
func NewLDAP(cfg LDAPConfig, dial DialFunc) (*LDAP, error) {
	if cfg.URL == "" {
		return nil, errors.New("directory: ldap url is required")
	}
	if cfg.searchMode() {
		if cfg.UserSearch.Base == "" {
			return nil, errors.New("directory: user search base is required with a bind dn")
		}
		if cfg.UserSearch.Filter == "" {
			cfg.UserSearch.Filter = "(uid=" + UsernamePlaceholder + ")"
		}
		if !strings.Contains(cfg.UserSearch.Filter, UsernamePlaceholder) {
			return nil, fmt.Errorf("directory: user search filter must contain %s", UsernamePlaceholder)
		}
	} else if strings.Count(cfg.UserDNTemplate, "%s") != 1 {
		return nil, errors.New("directory: user dn template must contain exactly one %s")
	}
	if dial == nil {
		dial = DialLDAP
	}
	return &LDAP{cfg: cfg, dial: dial}, nil
}

// DialLDAP connects with go-ldap, upgrading with StartTLS when configured.
func DialLDAP(ctx context.Context, cfg LDAPConfig) (Conn, func(), error) {
	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := ldap.DialURL(cfg.URL,
		ldap.DialWithDialer(dialer),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("directory: dial: %w", err)
	}
	closeConn := func() { conn.Close() }

	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}

	if cfg.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			closeConn()
			return nil, nil, fmt.Errorf("directory: starttls: %w", err)
		}
	}

	return conn, closeConn, nil
}

func buildTLSConfig(cfg LDAPConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify, // #nosec G402 - operator opt-in for lab directories
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile) // #nosec G304 - operator supplied path
		if err != nil {
			return nil, fmt.Errorf("directory: read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("directory: no certificates in ca file")
		}
		tlsConfig.RootCAs = pool
	}

	return tlsConfig, nil
}

// Authenticate never contacts the server for an empty username or password.
// go-ldap would refuse an empty password bind anyway, but an unauthenticated
// bind must never be attempted on our behalf.
func (l *LDAP) Authenticate(ctx context.Context, username, password string) Result {
	if password == "" || username == "" {
		return Result{}
	}

	log := slogx.FromContext(ctx).With("component", "ldap", "username", username)

	conn, closeConn, err := l.dial(ctx, l.cfg)
	if err != nil {
		log.Warn("ldap_dial_failed", "err", err)
		return Result{}
	}
	defer closeConn()

	if l.cfg.searchMode() {
		return l.searchAndBind(conn, log, username, password)
	}
	return l.directBind(conn, log, username, password)
}

func (l *LDAP) searchAndBind(conn Conn, log *slog.Logger, username, password string) Result {
	if err := conn.Bind(l.cfg.BindDN, l.cfg.BindPassword); err != nil {
		log.Error("ldap_service_bind_failed", "err", err)
		return Result{}
	}

	filter := strings.ReplaceAll(l.cfg.UserSearch.Filter, UsernamePlaceholder, ldap.EscapeFilter(username))

	res, err := conn.Search(ldap.NewSearchRequest(
		l.cfg.UserSearch.Base,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // more than one match is ambiguous
		l.timeLimit(),
		false,
		filter,
		l.attributes(),
		nil,
	))
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			log.Warn("ldap_search_ambiguous")
		} else {
			log.Warn("ldap_search_failed", "err", err)
		}
		return Result{}
	}

	switch len(res.Entries) {
	case 0:
		log.Info("ldap_principal_not_found")
		return Result{}
	case 1:
	default:
		log.Warn("ldap_search_ambiguous", "entries", len(res.Entries))
		return Result{}
	}

	out := l.resultFromEntry(res.Entries[0])
	out.Exists = true

	if err := conn.Bind(out.DN, password); err != nil {
		logBindFailure(log, err)
		return out
	}

	out.OK = true
	return out
}

func (l *LDAP) directBind(conn Conn, log *slog.Logger, username, password string) Result {
	dn := fmt.Sprintf(l.cfg.UserDNTemplate, ldap.EscapeDN(username))

	if err := conn.Bind(dn, password); err != nil {
		logBindFailure(log, err)
		return Result{}
	}

	out := Result{OK: true, DN: dn}

	attrs := l.attributes()
	if len(attrs) == 0 {
		return out
	}

	// Attributes are best effort once the bind has succeeded.
	res, err := conn.Search(ldap.NewSearchRequest(
		dn,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1,
		l.timeLimit(),
		false,
		"(objectClass=*)",
		attrs,
		nil,
	))
	if err != nil || len(res.Entries) != 1 {
		log.Debug("ldap_attribute_read_failed", "err", err)
		return out
	}

	out = l.resultFromEntry(res.Entries[0])
	out.OK = true
	out.DN = dn
	return out
}

func (l *LDAP) resultFromEntry(e *ldap.Entry) Result {
	out := Result{
		DN:         e.DN,
		Attributes: make(map[string][]string, len(e.Attributes)),
	}
	for _, a := range e.Attributes {
		out.Attributes[a.Name] = a.Values
	}
	if attr := l.cfg.UserSearch.DisplayNameAttribute; attr != "" {
		out.DisplayName = e.GetAttributeValue(attr)
	}
	if attr := l.cfg.UserSearch.EmailAttribute; attr != "" {
		out.Email = e.GetAttributeValue(attr)
	}
	return out
}

func (l *LDAP) attributes() []string {
	var attrs []string
	if a := l.cfg.UserSearch.DisplayNameAttribute; a != "" {
		attrs = append(attrs, a)
	}
	if a := l.cfg.UserSearch.EmailAttribute; a != "" {
		attrs = append(attrs, a)
	}
	return attrs
}

func (l *LDAP) timeLimit() int {
	return int(l.cfg.Timeout / time.Second)
}

func logBindFailure(log *slog.Logger, err error) {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		log.Info("ldap_invalid_credentials")
		return
	}
	log.Warn("ldap_bind_failed", "err", err)
}
