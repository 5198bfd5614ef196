package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	legacyHashPrefix = "$2y$"
	modernHashPrefix = "$2b$"
)

// NormalizeHash rewrites the "$2y$" prefix written by older PHP-based
// account tooling into "$2b$". Both name the same bcrypt algorithm, so
// legacy accounts keep working without a forced rehash. Other hashes are
// returned unchanged.
func NormalizeHash(hash string) string {
	if len(hash) >= len(legacyHashPrefix) && strings.EqualFold(hash[:len(legacyHashPrefix)], legacyHashPrefix) {
		return modernHashPrefix + hash[len(legacyHashPrefix):]
	}
	return hash
}

// VerifyPassword reports whether plaintext matches storedHash. The
// comparison is bcrypt's constant-time compare. A malformed or empty hash
// is reported exactly like a wrong password.
func VerifyPassword(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(NormalizeHash(storedHash)), []byte(plaintext))
	return err == nil
}

// HashPassword hashes plaintext with bcrypt at the given cost.
func HashPassword(plaintext string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
