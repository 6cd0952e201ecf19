// Package authutil provides password hashing and validation helpers.
// Hashing uses bcrypt with a fixed cost; comparison is constant-time via
// bcrypt.CompareHashAndPassword. Plaintext equality is never used.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashes.
const BcryptCost = 12

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var (
	// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrPasswordCommon is returned for passwords on the common-password list.
	ErrPasswordCommon = errors.New("password is too common")
)

// commonPasswords is a small deny-list of the most frequently used passwords.
// Checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"1234567890": {},
	"qwertyuiop": {},
	"iloveyou":   {},
	"admin123":   {},
	"letmein1":   {},
	"welcome1":   {},
}

// ValidatePassword checks a candidate password against length and
// common-password rules. It does not hash.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if _, bad := commonPasswords[strings.ToLower(password)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored
// bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
