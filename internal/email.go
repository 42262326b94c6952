package internal

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every lookup and every stored email goes through it, so two spellings that
// differ only in case or padding are the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
