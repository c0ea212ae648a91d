package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewConfirmationCode returns a fresh random one-time code.
func NewConfirmationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HashCode creates a bcrypt hash of a confirmation code for storage.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyCode checks if the provided code matches the stored bcrypt hash.
func VerifyCode(hashedCode, providedCode string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(providedCode))
}
