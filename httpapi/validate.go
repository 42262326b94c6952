package httpapi

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pististrybe/trybeauth/password"
)

const (
	msgEmailRequired    = "Email is required"
	msgEmailInvalid     = "Email must be a valid email address"
	msgPasswordRequired = "Password is required"
	msgPasswordPolicy   = "Password must be at least 8 characters long containing at least a lowercase, upper case, a number and a special character"
	msgPasswordShort    = "Password must be at least 8 characters long"
	msgPasswordLong     = "Password must not be longer than 1024 bytes"
	msgRoleShort        = "role length must be at least 4 characters long"

	minPasswordLength = 8
	maxPasswordBytes  = password.DefaultMaxPasswordBytes
	minRoleLength     = 4

	passwordSpecials = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

type registerBody struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     *string `json:"role,omitempty"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validate returns the first failing rule's message, or "".
func (b registerBody) validate() string {
	if msg := validateEmail(b.Email); msg != "" {
		return msg
	}

	pw := strings.TrimSpace(b.Password)
	if pw == "" {
		return msgPasswordRequired
	}
	if len(pw) > maxPasswordBytes {
		return msgPasswordLong
	}
	if !meetsPasswordPolicy(pw) {
		return msgPasswordPolicy
	}

	if b.Role != nil && utf8.RuneCountInString(strings.TrimSpace(*b.Role)) < minRoleLength {
		return msgRoleShort
	}
	return ""
}

func (b loginBody) validate() string {
	if msg := validateEmail(b.Email); msg != "" {
		return msg
	}

	pw := strings.TrimSpace(b.Password)
	if pw == "" {
		return msgPasswordRequired
	}
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return msgPasswordShort
	}
	if len(pw) > maxPasswordBytes {
		return msgPasswordLong
	}
	return ""
}

func validateEmail(raw string) string {
	email := strings.TrimSpace(raw)
	if email == "" {
		return msgEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	// ParseAddress also accepts display-name forms such as "Ada <a@b.c>".
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return msgEmailInvalid
	}
	return ""
}

// meetsPasswordPolicy requires 8+ characters with a lowercase letter, an
// uppercase letter, a digit and one of passwordSpecials.
func meetsPasswordPolicy(pw string) bool {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}
