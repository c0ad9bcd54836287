package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for new hashes.
const PasswordCost = 10

var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword returns the bcrypt hash of password and the random salt that
// bcrypt embedded in it.
func HashPassword(password string) (hash, salt string, err error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	hash = string(b)
	return hash, saltOf(hash), nil
}

// CheckPassword compares password against hash with bcrypt's comparison,
// never with string equality.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// A bcrypt hash is "$2a$" + cost + "$" + 22 salt chars + 31 hash chars.
func saltOf(hash string) string {
	const start, n = 7, 22
	if len(hash) < start+n {
		return ""
	}
	return hash[start : start+n]
}
