package trybeauth

import (
	"context"
	"time"

	internalaudit "github.com/pististrybe/trybeauth/internal/audit"
)

// Role is an identity's authorization role.
type Role string

const (
	// RoleUser is the default role.
	RoleUser Role = "user"
	// RoleAdmin is a privileged role.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is the highest privileged role.
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Privileged reports whether r is admin or super_admin.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// SignupMethod records how an identity was created.
type SignupMethod string

const (
	// SignupDirect is email and password registration.
	SignupDirect SignupMethod = "direct"
	// SignupGoogle is federated registration. Such identities cannot log in with a password.
	SignupGoogle SignupMethod = "google"
)

// Identity is a stored account record.
//
// PasswordHash is empty for federated identities. RefreshToken is the single
// currently valid refresh token; empty means no session.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Biography    string
	Role         Role
	SignupMethod SignupMethod
	Active       bool
	Verified     bool
	Blocked      bool
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View returns the sanitized projection of i, without credential material.
func (i *Identity) View() IdentityView {
	return IdentityView{
		ID:           i.ID,
		Email:        i.Email,
		FullName:     i.FullName,
		Biography:    i.Biography,
		Role:         i.Role,
		SignupMethod: i.SignupMethod,
		Active:       i.Active,
		Verified:     i.Verified,
		Blocked:      i.Blocked,
	}
}

// IdentityView is the client-safe shape of an Identity. It has no password
// hash or refresh token fields, so neither can leak through serialization.
type IdentityView struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	FullName     string       `json:"fullName"`
	Biography    string       `json:"biography"`
	Role         Role         `json:"role"`
	SignupMethod SignupMethod `json:"signupMethod"`
	Active       bool         `json:"isActive"`
	Verified     bool         `json:"isVerified"`
	Blocked      bool         `json:"isBlocked"`
}

// Field names one Identity attribute for store projections.
type Field string

const (
	FieldID           Field = "id"
	FieldEmail        Field = "email"
	FieldPasswordHash Field = "password_hash"
	FieldFullName     Field = "full_name"
	FieldBiography    Field = "biography"
	FieldRole         Field = "role"
	FieldSignupMethod Field = "signup_method"
	FieldActive       Field = "is_active"
	FieldVerified     Field = "is_verified"
	FieldBlocked      Field = "is_blocked"
	FieldRefreshToken Field = "refresh_token"
	FieldCreatedAt    Field = "created_at"
	FieldUpdatedAt    Field = "updated_at"
)

// Projection lists the fields a lookup must populate. Fields not listed are
// left at their zero value. An empty Projection means every field.
type Projection []Field

// Has reports whether f is part of p.
func (p Projection) Has(f Field) bool {
	if len(p) == 0 {
		return true
	}
	for _, field := range p {
		if field == f {
			return true
		}
	}
	return false
}

var (
	// ProjectionExists is enough to answer "does this email exist".
	ProjectionExists = Projection{FieldID}
	// ProjectionLogin is what Login needs to decide and build its response.
	ProjectionLogin = Projection{
		FieldID, FieldEmail, FieldPasswordHash, FieldFullName, FieldBiography,
		FieldRole, FieldSignupMethod, FieldActive, FieldVerified, FieldBlocked,
	}
	// ProjectionSession is what the gate needs per request.
	ProjectionSession = Projection{FieldID, FieldBlocked, FieldRefreshToken}
	// ProjectionProfile is the sanitized view.
	ProjectionProfile = Projection{
		FieldID, FieldEmail, FieldFullName, FieldBiography, FieldRole,
		FieldSignupMethod, FieldActive, FieldVerified, FieldBlocked,
	}
	// ProjectionAll populates every field.
	ProjectionAll = Projection(nil)
)

// CreateIdentityInput is the record Register hands to the store.
type CreateIdentityInput struct {
	Email        string
	PasswordHash string
	Role         Role
	SignupMethod SignupMethod
	Active       bool
	Verified     bool
	Blocked      bool
}

// IdentityStore is the credential store the Engine reads and writes.
//
// Find methods return (nil, nil) when no identity matches. Create returns
// (nil, nil) when the backend accepted the write but produced no record.
// UpdateRefreshToken overwrites unconditionally; concurrent writers race and
// the last write wins. An empty token clears the session.
type IdentityStore interface {
	FindByNormalizedEmail(ctx context.Context, email string, fields Projection) (*Identity, error)
	FindByID(ctx context.Context, id string, fields Projection) (*Identity, error)
	Create(ctx context.Context, input CreateIdentityInput) (*Identity, error)
	UpdateRefreshToken(ctx context.Context, id string, token string) error
}

// Claims are the identity facts carried by a token and attached to an
// authenticated request.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// RegisterRequest is the input to Engine.Register.
type RegisterRequest struct {
	Email    string
	Password string
	Role     Role
}

// RegisterResult is returned by a successful Engine.Register.
type RegisterResult struct {
	Email   string
	Message string
}

// LoginResult is returned by a successful Engine.Login. The refresh token is
// persisted server-side and never returned.
type LoginResult struct {
	AccessToken string
	Identity    IdentityView
	Message     string
}

// AuthRequest is the transport-neutral view of a request the gate inspects.
type AuthRequest struct {
	Method        string
	Path          string
	Authorization string
}

// AuthState is the gate's decision for one request.
type AuthState uint8

const (
	// AuthExcluded passed because the method and path are on the exclusion list.
	AuthExcluded AuthState = iota
	// AuthUnprotected passed because the path matches no protected prefix.
	AuthUnprotected
	// AuthAccessValid passed on a valid access token.
	AuthAccessValid
	// AuthRotated passed after an expired access token was exchanged for a new pair.
	AuthRotated
	// AuthRejected refused the request; AuthResult.Err says why.
	AuthRejected
)

func (s AuthState) String() string {
	switch s {
	case AuthExcluded:
		return "excluded"
	case AuthUnprotected:
		return "unprotected"
	case AuthAccessValid:
		return "access_valid"
	case AuthRotated:
		return "rotated"
	default:
		return "rejected"
	}
}

// AuthResult is the outcome of Engine.Authenticate.
//
// Claims is set for AuthAccessValid and AuthRotated. AccessToken is set only
// for AuthRotated and must be returned to the caller in the rotated-token
// header. Err is set only for AuthRejected.
type AuthResult struct {
	State       AuthState
	Claims      *Claims
	AccessToken string
	Err         *Error
}

// Passed reports whether the request may proceed to its handler.
func (r AuthResult) Passed() bool { return r.State != AuthRejected }

// AuditEvent is a structured audit record emitted by the Engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the async dispatcher.
type AuditSink = internalaudit.Sink
