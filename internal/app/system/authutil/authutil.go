// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password accepted at sign-up.
	MinPasswordLength = 8
	// MaxPasswordLength stays under bcrypt's 72-byte input limit.
	MaxPasswordLength = 72
	// BcryptCost is the work factor for new password hashes.
	BcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrPasswordWeak     = errors.New("password must contain upper, lower, digit and special characters")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"password1!":   {},
	"password123!": {},
	"p@ssw0rd":     {},
	"p@ssword1":    {},
	"qwerty123!":   {},
	"welcome1!":    {},
	"letmein1!":    {},
	"admin123!":    {},
}

// ValidatePassword enforces the sign-up password rules.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}

	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrPasswordWeak
	}
	return nil
}

// PasswordRules describes ValidatePassword for display in error messages.
func PasswordRules() string {
	return "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, a number and a special character."
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
