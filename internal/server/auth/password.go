package auth

import (
	"errors"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is a variable so tests can use bcrypt.MinCost.
var passwordCost = bcrypt.DefaultCost

// HashPassword returns a salted bcrypt hash of password. Passwords longer
// than bcrypt's 72-byte limit are rejected as malformed input.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.WithDetail(common.ErrMalformedInput, "Password is too long")
		}
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
