// Package crypto provides cryptographic utilities for confirmation codes.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// ConfirmationCodeLength is the length of generated confirmation codes.
	ConfirmationCodeLength = 24

	// confirmationCodeChars contains characters used in confirmation codes.
	// Uppercase alphanumeric without lookalikes (no O/0, I/1) so codes
	// survive being read out of an email by hand.
	confirmationCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateConfirmationCode generates a random confirmation code.
// Example: "XK7PQNR2M4TVWZ8H3GSDAB9C"
func GenerateConfirmationCode() (string, error) {
	return generateRandomString(ConfirmationCodeLength, confirmationCodeChars)
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result), nil
}

// DigestCode computes a bcrypt digest of a confirmation code. Only the
// digest is stored; the plaintext code exists only in the delivery email.
func DigestCode(code string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to digest code: %w", err)
	}
	return digest, nil
}

// CompareCode checks a plaintext code against a stored digest.
// Returns true only on an exact match.
func CompareCode(digest []byte, code string) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(code)) == nil
}
