package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plain credential into its stored form and compares
// a candidate against a stored value.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, candidate string) bool
}

// BcryptHasher stores bcrypt hashes. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	if h.Cost == 0 {
		return HashPassword(password)
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	return string(bytes), err
}

func (h BcryptHasher) Compare(stored, candidate string) bool {
	return CheckPassword(candidate, stored)
}

// PlainHasher stores credentials as given. Only meant for tests and local runs.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Compare(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// NewPasswordHasher picks a hasher by name; anything but "plain" gets bcrypt.
func NewPasswordHasher(name string) PasswordHasher {
	if name == "plain" {
		return PlainHasher{}
	}
	return BcryptHasher{}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
