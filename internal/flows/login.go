package flows

import "context"

// LoginOutcome carries the authenticated identity and its new token pair.
type LoginOutcome struct {
	Identity     *IdentityRecord
	AccessToken  string
	RefreshToken string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	UserNotFound          error
	Blocked               error
	DifferentSignupMethod error
	InvalidCredentials    error
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	DirectSignupMethod string

	NormalizeEmail     func(string) string
	FindByEmail        func(context.Context, string) (*IdentityRecord, error)
	VerifyPassword     func(password, hash string) bool
	IssuePair          func(TokenClaims) (TokenPair, error)
	UpdateRefreshToken func(context.Context, string, string) error
	WrapInternal       func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin authenticates an email and password and opens a session.
//
// The checks run in a fixed order: unknown email, blocked account, non-direct
// signup method, wrong password. On success the new refresh token replaces
// whatever the identity held before, ending any earlier session.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginOutcome, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.WrapInternal == nil {
		deps.WrapInternal = func(err error) error { return err }
	}
	if deps.NormalizeEmail == nil ||
		deps.FindByEmail == nil ||
		deps.VerifyPassword == nil ||
		deps.IssuePair == nil ||
		deps.UpdateRefreshToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = deps.NormalizeEmail(email)

	fail := func(userID string, err error, reason string) (*LoginOutcome, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, userID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return nil, err
	}

	identity, err := deps.FindByEmail(ctx, email)
	if err != nil {
		return fail("", deps.WrapInternal(err), "lookup_failed")
	}
	if identity == nil {
		return fail("", deps.Errors.UserNotFound, "user_not_found")
	}
	if identity.Blocked {
		return fail(identity.ID, deps.Errors.Blocked, "blocked")
	}
	if identity.SignupMethod != deps.DirectSignupMethod {
		return fail(identity.ID, deps.Errors.DifferentSignupMethod, "different_signup_method")
	}
	if !deps.VerifyPassword(password, identity.PasswordHash) {
		return fail(identity.ID, deps.Errors.InvalidCredentials, "invalid_password")
	}

	pair, err := deps.IssuePair(TokenClaims{
		ID:    identity.ID,
		Email: identity.Email,
		Role:  identity.Role,
	})
	if err != nil {
		return fail(identity.ID, deps.WrapInternal(err), "issue_failed")
	}
	if err := deps.UpdateRefreshToken(ctx, identity.ID, pair.RefreshToken); err != nil {
		return fail(identity.ID, deps.WrapInternal(err), "persist_failed")
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, identity.ID, nil, nil)

	return &LoginOutcome{
		Identity:     identity,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
