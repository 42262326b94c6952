package httpapi

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestRegisterBodyValidate(t *testing.T) {
	tests := []struct {
		name string
		body registerBody
		want string
	}{
		{"ok", registerBody{Email: "ada@example.com", Password: "Correct-horse-1!"}, ""},
		{"ok with role", registerBody{Email: "ada@example.com", Password: "Correct-horse-1!", Role: strPtr("admin")}, ""},
		{"blank email", registerBody{Email: "  ", Password: "Correct-horse-1!"}, msgEmailRequired},
		{"display name form", registerBody{Email: "Ada <ada@example.com>", Password: "Correct-horse-1!"}, msgEmailInvalid},
		{"no tld", registerBody{Email: "ada@localhost", Password: "Correct-horse-1!"}, msgEmailInvalid},
		{"blank password", registerBody{Email: "ada@example.com", Password: "   "}, msgPasswordRequired},
		{"no special", registerBody{Email: "ada@example.com", Password: "Correcthorse1"}, msgPasswordPolicy},
		{"no upper", registerBody{Email: "ada@example.com", Password: "correct-horse-1!"}, msgPasswordPolicy},
		{"short", registerBody{Email: "ada@example.com", Password: "Co-1!"}, msgPasswordPolicy},
		{"too long", registerBody{Email: "ada@example.com", Password: "Aa1!" + strings.Repeat("x", 1100)}, msgPasswordLong},
		{"at cap", registerBody{Email: "ada@example.com", Password: "Aa1!" + strings.Repeat("x", 1020)}, ""},
		{"short role", registerBody{Email: "ada@example.com", Password: "Correct-horse-1!", Role: strPtr("abc")}, msgRoleShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.validate(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoginBodyValidate(t *testing.T) {
	tests := []struct {
		name string
		body loginBody
		want string
	}{
		{"ok", loginBody{Email: "ada@example.com", Password: "anything8"}, ""},
		{"missing email", loginBody{Password: "anything8"}, msgEmailRequired},
		{"missing password", loginBody{Email: "ada@example.com"}, msgPasswordRequired},
		{"short password", loginBody{Email: "ada@example.com", Password: "seven77"}, msgPasswordShort},
		{"long password", loginBody{Email: "ada@example.com", Password: strings.Repeat("p", 1025)}, msgPasswordLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.validate(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
