package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// OTPDigits is the length of a one-time code.
const OTPDigits = 6

// NewOTPCode returns a zero-padded random numeric code.
func NewOTPCode() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}

// HashOTP returns the SHA-256 hex digest of a code bound to an email, so a
// stored hash cannot be replayed for another address.
func HashOTP(email, code string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email) + ":" + strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// OTPMatches compares a candidate code with a stored hash in constant time.
func OTPMatches(hash, email, code string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HashOTP(email, code))) == 1
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailInDomain reports whether email belongs to domain.  An empty domain
// allows every address.
func EmailInDomain(email, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	if domain == "" {
		return true
	}
	return strings.HasSuffix(NormalizeEmail(email), "@"+domain)
}
