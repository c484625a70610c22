package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"strings"
)

// GenerateOTP returns a 6-digit numeric code drawn uniformly from
// [100000, 999999] using crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// GenerateRandomToken returns size random bytes, base64url-encoded.
// Callers persist only the HashToken digest of the result.
func GenerateRandomToken(size int) (string, error) {
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// HashMatches compares a stored digest against the digest of a candidate
// secret in constant time.
func HashMatches(storedHash string, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(HashToken(candidate))) == 1
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
