package flows

import "context"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register     RegisterDeps
	Login        LoginDeps
	Authenticate GateDeps
	Logout       LogoutDeps
}

// IdentityRecord is the flow-local identity model. Host carries the
// host-level record unchanged so the caller can build its own response.
type IdentityRecord struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	SignupMethod string
	Blocked      bool
	RefreshToken string
	Host         any
}

// TokenClaims is the flow-local token payload.
type TokenClaims struct {
	ID    string
	Email string
	Role  string
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenCheck classifies a token verification.
type TokenCheck int

const (
	TokenValid TokenCheck = iota
	TokenExpired
	TokenInvalid
)

// AuditFunc emits one audit event. userID may be empty.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string)

func noopMetric(int) {}

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopWarn(string, ...any) {}
