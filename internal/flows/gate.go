package flows

import (
	"context"
	"strings"
)

// GateState is the gate's decision for one request.
type GateState int

const (
	GateExcluded GateState = iota
	GateUnprotected
	GateAccessValid
	GateRotated
	GateRejected
)

// GateFailureKind says why a request was rejected.
type GateFailureKind int

const (
	GateFailureNone GateFailureKind = iota
	GateFailureNoHeader
	GateFailureNoToken
	GateFailureUserNotFound
	GateFailureBlocked
	GateFailureNoSession
	GateFailureMissingIdentity
	GateFailureRefreshInvalid
	GateFailureTokenInvalid
	GateFailureInternal
)

// GateInput is the part of a request the gate inspects.
type GateInput struct {
	Method        string
	Path          string
	Authorization string
}

// GateResult is the gate's decision. Claims is set when the request passes on
// a token. AccessToken is set only for GateRotated.
type GateResult struct {
	State        GateState
	Failure      GateFailureKind
	Err          error
	Claims       *TokenClaims
	AccessToken  string
	RefreshToken string
}

// GateMetrics carries metric IDs needed by the gate flow.
type GateMetrics struct {
	PassExcluded    int
	PassUnprotected int
	PassAccess      int
	Rejected        int
	RotationSuccess int
	RotationFailure int
}

// GateEvents carries audit event names used by the gate flow.
type GateEvents struct {
	Rejected        string
	RotationSuccess string
	RotationFailure string
}

// GateErrors carries host-level errors used by the gate flow.
type GateErrors struct {
	EngineNotReady  error
	NoHeader        error
	NoToken         error
	UserNotFound    error
	Blocked         error
	NoSession       error
	MissingIdentity error
	RefreshInvalid  error
	TokenInvalid    func(detail string, cause error) error
	Internal        func(error) error
}

// GateDeps captures gate flow dependencies.
type GateDeps struct {
	IsExcluded    func(method, path string) bool
	IsProtected   func(path string) bool
	VerifyToken   func(string) (*TokenClaims, TokenCheck, error)
	DecodeExpired func(string) (*TokenClaims, error)
	FindIdentity  func(context.Context, string) (*IdentityRecord, error)
	Rotation      RotationDeps

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics GateMetrics
	Events  GateEvents
	Errors  GateErrors
}

// RunAuthenticate decides whether a request may proceed.
//
// Excluded endpoints pass first. Any path that starts with none of the
// protected prefixes passes next, with no token inspection at all; new routes
// are therefore public until a prefix covers them. Otherwise a bearer token is
// required. A valid access token passes if its identity still exists, is not
// blocked and holds a refresh token. An expired access token is exchanged for
// a new pair when the identity's stored refresh token still verifies.
func RunAuthenticate(ctx context.Context, in GateInput, deps GateDeps) GateResult {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.IsExcluded == nil ||
		deps.IsProtected == nil ||
		deps.VerifyToken == nil ||
		deps.DecodeExpired == nil ||
		deps.FindIdentity == nil ||
		deps.Rotation.VerifyToken == nil ||
		deps.Rotation.IssuePair == nil ||
		deps.Rotation.UpdateRefreshToken == nil {
		return GateResult{State: GateRejected, Failure: GateFailureInternal, Err: deps.Errors.EngineNotReady}
	}

	if deps.IsExcluded(in.Method, in.Path) {
		deps.MetricInc(deps.Metrics.PassExcluded)
		return GateResult{State: GateExcluded}
	}
	if !deps.IsProtected(in.Path) {
		deps.MetricInc(deps.Metrics.PassUnprotected)
		return GateResult{State: GateUnprotected}
	}

	reject := func(kind GateFailureKind, userID string, err error) GateResult {
		deps.MetricInc(deps.Metrics.Rejected)
		deps.EmitAudit(ctx, deps.Events.Rejected, false, userID, err, func() map[string]string {
			return map[string]string{
				"method": in.Method,
				"path":   in.Path,
			}
		})
		return GateResult{State: GateRejected, Failure: kind, Err: err}
	}
	internal := func(userID string, err error) GateResult {
		return reject(GateFailureInternal, userID, deps.Errors.Internal(err))
	}

	if in.Authorization == "" {
		return reject(GateFailureNoHeader, "", deps.Errors.NoHeader)
	}
	token, ok := BearerToken(in.Authorization)
	if !ok {
		return reject(GateFailureNoToken, "", deps.Errors.NoToken)
	}

	claims, check, err := deps.VerifyToken(token)
	switch check {
	case TokenValid:
		identity, err := deps.FindIdentity(ctx, claims.ID)
		if err != nil {
			return internal(claims.ID, err)
		}
		if identity == nil {
			return reject(GateFailureUserNotFound, claims.ID, deps.Errors.UserNotFound)
		}
		if identity.Blocked {
			return reject(GateFailureBlocked, identity.ID, deps.Errors.Blocked)
		}
		if identity.RefreshToken == "" {
			return reject(GateFailureNoSession, identity.ID, deps.Errors.NoSession)
		}
		deps.MetricInc(deps.Metrics.PassAccess)
		return GateResult{State: GateAccessValid, Claims: claims}

	case TokenExpired:
		return runExpired(ctx, token, deps, reject, internal)

	default:
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		return reject(GateFailureTokenInvalid, "", deps.Errors.TokenInvalid(detail, err))
	}
}

func runExpired(
	ctx context.Context,
	token string,
	deps GateDeps,
	reject func(GateFailureKind, string, error) GateResult,
	internal func(string, error) GateResult,
) GateResult {
	decoded, err := deps.DecodeExpired(token)
	if err != nil || decoded == nil || decoded.ID == "" {
		return reject(GateFailureMissingIdentity, "", deps.Errors.MissingIdentity)
	}

	identity, err := deps.FindIdentity(ctx, decoded.ID)
	if err != nil {
		return internal(decoded.ID, err)
	}
	if identity == nil {
		return reject(GateFailureUserNotFound, decoded.ID, deps.Errors.UserNotFound)
	}
	if identity.Blocked {
		return reject(GateFailureBlocked, identity.ID, deps.Errors.Blocked)
	}

	rotated := RunRotation(ctx, identity.RefreshToken, deps.Rotation)
	switch rotated.Failure {
	case RotationFailureNone:
	case RotationFailureRefreshInvalid:
		deps.MetricInc(deps.Metrics.RotationFailure)
		deps.EmitAudit(ctx, deps.Events.RotationFailure, false, identity.ID, deps.Errors.RefreshInvalid, nil)
		return reject(GateFailureRefreshInvalid, identity.ID, deps.Errors.RefreshInvalid)
	default:
		deps.MetricInc(deps.Metrics.RotationFailure)
		deps.Warn("gate: rotation failed", "user_id", identity.ID, "error", rotated.Err)
		return internal(identity.ID, rotated.Err)
	}

	deps.MetricInc(deps.Metrics.RotationSuccess)
	deps.EmitAudit(ctx, deps.Events.RotationSuccess, true, rotated.Claims.ID, nil, nil)

	return GateResult{
		State:        GateRotated,
		Claims:       rotated.Claims,
		AccessToken:  rotated.AccessToken,
		RefreshToken: rotated.RefreshToken,
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
