package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
)

// Configuration for Argon2id hashing.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16

	// Upper bounds accepted from stored hashes.
	maxVerifyMemory     = 1 << 20 // KiB
	maxVerifyIterations = 16
	maxVerifyBytes      = 128
)

var (
	pepperMu   sync.RWMutex
	pepper     string
	pepperFile string
)

// SetPepperPath sets the file the pepper is loaded from. An empty path means
// hashes are not peppered.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepperFile = file
	pepper = ""
}

// LoadPepper reads the pepper file, creating it with a random value when it
// does not exist yet. Call it once on startup so a bad path fails early.
func LoadPepper() error {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepperFile == "" {
		pepper = ""
		return nil
	}

	p, err := loadOrGeneratePepper(pepperFile)
	if err != nil {
		return err
	}
	pepper = p
	return nil
}

// GetPepper returns the loaded pepper. It loads lazily if LoadPepper was never
// called and returns an empty pepper if loading fails.
func GetPepper() string {
	pepperMu.RLock()
	p, file := pepper, pepperFile
	pepperMu.RUnlock()

	if p != "" || file == "" {
		return p
	}
	if err := LoadPepper(); err != nil {
		return ""
	}

	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

func loadOrGeneratePepper(file string) (string, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return "", err
	}

	if _, err := os.Stat(file); os.IsNotExist(err) {
		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		p := base64.RawURLEncoding.EncodeToString(buf)
		if err := os.WriteFile(file, []byte(p), 0600); err != nil {
			return "", err
		}
		return p, nil
	}

	b, err := os.ReadFile(file) // #nosec G304 - operator supplied path
	if err != nil {
		return "", err
	}
	return string(b), nil
}
