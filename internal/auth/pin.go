package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HashPin returns the lowercase hex SHA-256 of pin, the format the mobile
// clients send.
func HashPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// PinHashesEqual compares two hex hashes ignoring case.
func PinHashesEqual(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// VerifyPin checks a raw pin against a stored hash.
func VerifyPin(pin, storedHash string) bool {
	return PinHashesEqual(HashPin(pin), storedHash)
}
