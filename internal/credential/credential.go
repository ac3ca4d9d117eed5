// Package credential hashes and verifies account passwords with bcrypt.
package credential

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every new hash.
const Cost = 10

// MinPasswordLength is enforced by registration, not by Hash.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	ErrTooShort = errors.New("password too short")
	ErrTooLong  = errors.New("password too long")
)

// Check reports whether the trimmed password fits the length limits.
// The minimum counts characters, the maximum counts bytes.
func Check(password string) error {
	password = strings.TrimSpace(password)
	switch {
	case len([]rune(password)) < MinPasswordLength:
		return ErrTooShort
	case len(password) > MaxPasswordBytes:
		return ErrTooLong
	}
	return nil
}

// Hash trims the password and returns its bcrypt hash.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether the trimmed password matches hash. Empty or
// malformed hashes never match.
func Verify(password, hash string) bool {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(password))) == nil
}
