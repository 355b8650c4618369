// Package auth implements credential hashing, JWT issuance and the
// composite API key format shared by the HTTP layer and the admin CLI.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters are part of the stored-credential contract.
// Changing them invalidates every password and API key hash on disk.
const (
	saltLength     = 32
	hashLength     = 32
	hashIterations = 100000
)

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generating salt")
	}
	return salt, nil
}

// HashSecret derives the stored hash for a password or API key secret.
func HashSecret(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, hashIterations, hashLength, sha256.New)
}

// VerifySecret reports whether secret matches the stored hash. The
// comparison is constant time.
func VerifySecret(secret string, salt, expected []byte) bool {
	computed := HashSecret(secret, salt)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// NewAPIKeySecret returns a URL-safe random secret for a freshly
// created API key.
func NewAPIKeySecret() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "generating api key secret")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
