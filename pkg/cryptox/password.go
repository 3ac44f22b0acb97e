package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned when a password does not match its hash.
	ErrPasswordMismatch = errors.New("cryptox: password does not match")

	// ErrUnsupportedHash is returned for hashes that are neither argon2id PHC
	// strings nor bcrypt hashes.
	ErrUnsupportedHash = errors.New("cryptox: unsupported hash format")
)

// HashPassword generates a PHC-format Argon2id hash string including salt and
// parameters. The configured pepper is appended to the password first.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password+GetPepper()), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against an encoded hash.
//
// Two formats are understood: Argon2id PHC strings produced by HashPassword,
// and bcrypt hashes ($2a$, $2b$, $2y$) carried over from accounts imported
// from older systems. bcrypt hashes are never peppered.
func VerifyPassword(password, encodedHash string) error {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return verifyArgon2id(password, encodedHash)
	case isBcrypt(encodedHash):
		if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrPasswordMismatch
			}
			return fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
		}
		return nil
	default:
		return ErrUnsupportedHash
	}
}

func isBcrypt(encodedHash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encodedHash, prefix) {
			return true
		}
	}
	return false
}

// verifyArgon2id parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func verifyArgon2id(password, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return fmt.Errorf("%w: expected 6 parts", ErrUnsupportedHash)
	}
	if parts[2] != "v=19" {
		return fmt.Errorf("%w: wrong argon2 version", ErrUnsupportedHash)
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %v", ErrUnsupportedHash, err)
	}
	// argon2.IDKey panics on zero rounds or lanes and allocates m KiB.
	if iters < 1 || iters > maxVerifyIterations ||
		par < 1 ||
		mem < 8*uint32(par) || mem > maxVerifyMemory {
		return fmt.Errorf("%w: parameters out of range", ErrUnsupportedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) > maxVerifyBytes {
		return fmt.Errorf("%w: salt", ErrUnsupportedHash)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 || len(expected) > maxVerifyBytes {
		return fmt.Errorf("%w: hash", ErrUnsupportedHash)
	}

	computed := argon2.IDKey(
		[]byte(password+GetPepper()),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115 - bounded by maxVerifyBytes
	)
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
