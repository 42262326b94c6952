package flows

import (
	"context"
	"strings"
)

// RegisterInput is the flow-local registration request.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// RegisterCreateRecord is the record handed to the store.
type RegisterCreateRecord struct {
	Email        string
	PasswordHash string
	Role         string
	SignupMethod string
	Active       bool
	Verified     bool
	Blocked      bool
}

// RegisterOutcome describes a created identity.
type RegisterOutcome struct {
	ID         string
	Email      string
	Privileged bool
}

// RegisterMetrics carries metric IDs needed by the register flow.
type RegisterMetrics struct {
	Success   int
	Duplicate int
	Failure   int
}

// RegisterEvents carries audit event names used by the register flow.
type RegisterEvents struct {
	Success   string
	Duplicate string
	Failure   string
}

// RegisterErrors carries host-level sentinel errors used by the register flow.
type RegisterErrors struct {
	EngineNotReady      error
	InvalidRole         error
	EmailExists         error
	ProcessUnsuccessful error
	PasswordTooLong     error
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	DefaultRole        string
	DirectSignupMethod string

	NormalizeEmail func(string) string
	ValidRole      func(string) bool
	PrivilegedRole func(string) bool
	EmailExists    func(context.Context, string) (bool, error)
	HashPassword   func(string) (string, error)
	CreateIdentity func(context.Context, RegisterCreateRecord) (*IdentityRecord, error)
	WrapInternal   func(error) error

	// IsPasswordTooLong reports whether a HashPassword error is the length
	// cap rather than a fault. Nil means every hash error is a fault.
	IsPasswordTooLong func(error) bool

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister creates a direct-signup identity.
//
// The email is normalized before the uniqueness check and before storage. The
// password is trimmed and hashed; the plaintext never reaches the store.
// Identities with a privileged role are created verified. Every new identity
// is active and unblocked.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) (*RegisterOutcome, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.WrapInternal == nil {
		deps.WrapInternal = func(err error) error { return err }
	}
	if deps.NormalizeEmail == nil ||
		deps.ValidRole == nil ||
		deps.PrivilegedRole == nil ||
		deps.EmailExists == nil ||
		deps.HashPassword == nil ||
		deps.CreateIdentity == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email := deps.NormalizeEmail(in.Email)
	role := in.Role
	if role == "" {
		role = deps.DefaultRole
	}

	fail := func(metric int, event string, err error, reason string) (*RegisterOutcome, error) {
		deps.MetricInc(metric)
		deps.EmitAudit(ctx, event, false, "", err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return nil, err
	}

	if !deps.ValidRole(role) {
		return fail(deps.Metrics.Failure, deps.Events.Failure, deps.Errors.InvalidRole, "invalid_role")
	}

	exists, err := deps.EmailExists(ctx, email)
	if err != nil {
		return fail(deps.Metrics.Failure, deps.Events.Failure, deps.WrapInternal(err), "lookup_failed")
	}
	if exists {
		return fail(deps.Metrics.Duplicate, deps.Events.Duplicate, deps.Errors.EmailExists, "duplicate")
	}

	hash, err := deps.HashPassword(strings.TrimSpace(in.Password))
	if err != nil {
		if deps.IsPasswordTooLong != nil && deps.IsPasswordTooLong(err) && deps.Errors.PasswordTooLong != nil {
			return fail(deps.Metrics.Failure, deps.Events.Failure, deps.Errors.PasswordTooLong, "password_too_long")
		}
		return fail(deps.Metrics.Failure, deps.Events.Failure, deps.WrapInternal(err), "hash_failed")
	}

	privileged := deps.PrivilegedRole(role)
	created, err := deps.CreateIdentity(ctx, RegisterCreateRecord{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		SignupMethod: deps.DirectSignupMethod,
		Active:       true,
		Verified:     privileged,
		Blocked:      false,
	})
	if err != nil {
		return fail(deps.Metrics.Failure, deps.Events.Failure, deps.WrapInternal(err), "create_failed")
	}
	if created == nil {
		deps.Warn("register: store returned no identity", "email", email)
		return fail(deps.Metrics.Failure, deps.Events.Failure, deps.Errors.ProcessUnsuccessful, "create_empty")
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, created.ID, nil, func() map[string]string {
		return map[string]string{
			"role": role,
		}
	})

	return &RegisterOutcome{
		ID:         created.ID,
		Email:      email,
		Privileged: privileged,
	}, nil
}
