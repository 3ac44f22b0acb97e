package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
)

// NewDirectory builds the directory selected by cfg.Mode.
func NewDirectory(cfg DirectoryConfig, logger *slog.Logger) (directory.Directory, error) {
	switch cfg.Mode {
	case DirectoryLDAP:
		ldapCfg := cfg.LDAP.directoryConfig(cfg.Timeout)
		dir, err := directory.NewLDAP(ldapCfg, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to configure ldap directory: %w", err)
		}
		mode := "direct bind"
		if ldapCfg.BindDN != "" {
			mode = "search"
		}
		logger.Info("ldap directory enabled", "url", ldapCfg.URL, "mode", mode, "start_tls", ldapCfg.StartTLS)
		if ldapCfg.InsecureSkipVerify {
			logger.Warn("ldap certificate verification is disabled")
		}
		return dir, nil

	case DirectoryStatic:
		principals := make(map[string]directory.Principal, len(cfg.Static))
		for name, p := range cfg.Static {
			principals[name] = directory.Principal{
				Password:    p.Password,
				DisplayName: p.DisplayName,
				Email:       p.Email,
			}
		}
		logger.Warn("static directory enabled - for development only", "principals", len(principals))
		return directory.NewStatic(principals), nil

	case DirectoryDisabled, "":
		logger.Info("directory disabled - only local accounts can log in")
		return directory.Disabled{}, nil

	default:
		return nil, fmt.Errorf("unknown directory mode %q", cfg.Mode)
	}
}
