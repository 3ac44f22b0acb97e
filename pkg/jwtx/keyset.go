package jwtx

import (
	"crypto/ed25519"
	"errors"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the public keys sessions may be verified with, keyed by kid.
// It is safe for concurrent use.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// AddSigner registers a signer's public key.
func (k *KeySet) AddSigner(s Signer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	k.Add(s.KID(), s.PublicKey())
	return nil
}

// Add registers pub under kid, replacing any previous key.
func (k *KeySet) Add(kid string, pub ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}
