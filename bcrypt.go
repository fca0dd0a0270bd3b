package signup

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatchedHashAndPassword means the cleartext does not match the hash.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// BcryptHasher is the default PasswordHasher.
type BcryptHasher struct {
	// Cost overrides the bcrypt work factor. Zero uses bcrypt.DefaultCost.
	Cost int
}

// Hash will generate a password hash
func (h BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrNoEmptyString
	}

	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	return string(hash), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
