package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

// InitSessionKeys loads the session signing key and publishes it in a KeySet.
//
// Key modes:
//   - ephemeral (no key file): a key is generated on startup and kept in
//     memory. Every session is invalidated when the service restarts.
//   - persistent (key file set): the key is read from the PEM file, which is
//     created with 0600 permissions on first start. Sessions survive restarts.
func InitSessionKeys(cfg SessionConfig, logger *slog.Logger) (*jwtx.EdDSASigner, *jwtx.KeySet, error) {
	var (
		pemKey []byte
		kid    string
		err    error
	)

	if cfg.KeyFile == "" {
		pemKey, err = cryptox.GenerateEd25519Key()
		kid = "ephemeral-" + idx.New().String()
	} else {
		pemKey, err = cryptox.LoadOrGenerateEd25519Key(cfg.KeyFile)
		kid = "file"
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, fmt.Errorf("failed to publish session key: %w", err)
	}

	if cfg.KeyFile == "" {
		logger.Warn("using an ephemeral session key - all sessions end when the service restarts")
	} else {
		logger.Info("session key loaded", "path", cfg.KeyFile, "kid", kid)
	}

	return signer, keys, nil
}
