package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. The digest and salt are stored together as
// "<hex digest>.<hex salt>".
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	saltLen      = 16
)

// ErrMalformedHash indicates a stored credential missing its salt separator.
// It is a hard input error, never a silent verification failure.
var ErrMalformedHash = errors.New("auth: malformed password hash")

// HashPassword derives a salted scrypt digest of password. The salt is random
// per call, so hashing the same password twice never yields the same output.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}
	digest, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("auth: derive key: %w", err)
	}
	return hex.EncodeToString(digest) + "." + hex.EncodeToString(salt), nil
}

// VerifyPassword recomputes the digest of candidate with the stored salt and
// compares in constant time.
func VerifyPassword(candidate, encoded string) (bool, error) {
	digestHex, saltHex, found := strings.Cut(encoded, ".")
	if !found {
		return false, ErrMalformedHash
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	computed, err := scrypt.Key([]byte(candidate), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, fmt.Errorf("auth: derive key: %w", err)
	}
	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}
