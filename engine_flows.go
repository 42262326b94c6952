package trybeauth

import (
	"context"
	"errors"

	"github.com/pististrybe/trybeauth/internal"
	"github.com/pististrybe/trybeauth/internal/flows"
	"github.com/pististrybe/trybeauth/jwt"
	"github.com/pististrybe/trybeauth/password"
)

func (e *Engine) buildFlowDeps() flows.Deps {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }
	emitAudit := func(ctx context.Context, event string, success bool, userID string, err error, metadata func() map[string]string) {
		e.emitAudit(ctx, event, success, userID, err, metadata)
	}

	return flows.Deps{
		Register: flows.RegisterDeps{
			DefaultRole:        string(e.config.Account.DefaultRole),
			DirectSignupMethod: string(SignupDirect),
			NormalizeEmail:     internal.NormalizeEmail,
			ValidRole:          func(r string) bool { return Role(r).Valid() },
			PrivilegedRole:     func(r string) bool { return Role(r).Privileged() },
			EmailExists:        e.emailExists,
			HashPassword:       e.passwordHash.Hash,
			IsPasswordTooLong:  func(err error) bool { return errors.Is(err, password.ErrPasswordTooLong) },
			CreateIdentity:     e.createIdentity,
			WrapInternal:       wrapInternal,
			MetricInc:          metricInc,
			EmitAudit:          emitAudit,
			Warn:               e.warn,
			Metrics: flows.RegisterMetrics{
				Success:   int(MetricRegisterSuccess),
				Duplicate: int(MetricRegisterDuplicate),
				Failure:   int(MetricRegisterFailure),
			},
			Events: flows.RegisterEvents{
				Success:   auditEventRegisterSuccess,
				Duplicate: auditEventRegisterDuplicate,
				Failure:   auditEventRegisterFailure,
			},
			Errors: flows.RegisterErrors{
				EngineNotReady:      ErrEngineNotReady,
				InvalidRole:         ErrInvalidRole,
				EmailExists:         ErrEmailAlreadyExists,
				ProcessUnsuccessful: ErrProcessUnsuccessful,
				PasswordTooLong:     ErrPasswordTooLong,
			},
		},
		Login: flows.LoginDeps{
			DirectSignupMethod: string(SignupDirect),
			NormalizeEmail:     internal.NormalizeEmail,
			FindByEmail:        e.findLoginRecord,
			VerifyPassword:     e.passwordHash.Verify,
			IssuePair:          e.issuePair,
			UpdateRefreshToken: e.store.UpdateRefreshToken,
			WrapInternal:       wrapInternal,
			MetricInc:          metricInc,
			EmitAudit:          emitAudit,
			Metrics: flows.LoginMetrics{
				LoginSuccess: int(MetricLoginSuccess),
				LoginFailure: int(MetricLoginFailure),
			},
			Events: flows.LoginEvents{
				LoginSuccess: auditEventLoginSuccess,
				LoginFailure: auditEventLoginFailure,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:        ErrEngineNotReady,
				UserNotFound:          ErrUserNotFound,
				Blocked:               ErrBlockedAccount,
				DifferentSignupMethod: ErrDifferentSignupMethod,
				InvalidCredentials:    ErrInvalidCredentials,
			},
		},
		Authenticate: flows.GateDeps{
			IsExcluded:    e.routes.isExcluded,
			IsProtected:   e.routes.isProtected,
			VerifyToken:   e.verifyToken,
			DecodeExpired: e.decodeExpired,
			FindIdentity:  e.findSessionRecord,
			Rotation: flows.RotationDeps{
				VerifyToken:        e.verifyToken,
				IssuePair:          e.issuePair,
				UpdateRefreshToken: e.store.UpdateRefreshToken,
			},
			MetricInc: metricInc,
			EmitAudit: emitAudit,
			Warn:      e.warn,
			Metrics: flows.GateMetrics{
				PassExcluded:    int(MetricGatePassExcluded),
				PassUnprotected: int(MetricGatePassUnprotected),
				PassAccess:      int(MetricGatePassAccess),
				Rejected:        int(MetricGateRejected),
				RotationSuccess: int(MetricRotationSuccess),
				RotationFailure: int(MetricRotationFailure),
			},
			Events: flows.GateEvents{
				Rejected:        auditEventGateRejected,
				RotationSuccess: auditEventSessionRotated,
				RotationFailure: auditEventRotationFailed,
			},
			Errors: flows.GateErrors{
				EngineNotReady:  ErrEngineNotReady,
				NoHeader:        ErrAuthorizationMissing,
				NoToken:         ErrLoginRequired,
				UserNotFound:    ErrSessionUserNotFound,
				Blocked:         ErrSessionBlocked,
				NoSession:       ErrSessionEnded,
				MissingIdentity: ErrTokenMissingIdentity,
				RefreshInvalid:  ErrRefreshExpired,
				TokenInvalid: func(detail string, cause error) error {
					return ErrTokenInvalid.WithDetail(detail, cause)
				},
				Internal: wrapInternal,
			},
		},
		Logout: flows.LogoutDeps{
			UpdateRefreshToken: e.store.UpdateRefreshToken,
			WrapInternal:       wrapInternal,
			MetricInc:          metricInc,
			EmitAudit:          emitAudit,
			Metric:             int(MetricLogout),
			Event:              auditEventLogout,
		},
	}
}

// wrapInternal keeps typed errors and turns everything else into ErrInternal.
func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	return AsError(err)
}

func (e *Engine) emailExists(ctx context.Context, email string) (bool, error) {
	identity, err := e.store.FindByNormalizedEmail(ctx, email, ProjectionExists)
	if err != nil {
		return false, err
	}
	return identity != nil, nil
}

func (e *Engine) createIdentity(ctx context.Context, in flows.RegisterCreateRecord) (*flows.IdentityRecord, error) {
	identity, err := e.store.Create(ctx, CreateIdentityInput{
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         Role(in.Role),
		SignupMethod: SignupMethod(in.SignupMethod),
		Active:       in.Active,
		Verified:     in.Verified,
		Blocked:      in.Blocked,
	})
	if err != nil || identity == nil {
		return nil, err
	}
	return toFlowRecord(identity), nil
}

func (e *Engine) findLoginRecord(ctx context.Context, email string) (*flows.IdentityRecord, error) {
	identity, err := e.store.FindByNormalizedEmail(ctx, email, ProjectionLogin)
	if err != nil || identity == nil {
		return nil, err
	}
	return toFlowRecord(identity), nil
}

func (e *Engine) findSessionRecord(ctx context.Context, id string) (*flows.IdentityRecord, error) {
	identity, err := e.store.FindByID(ctx, id, ProjectionSession)
	if err != nil || identity == nil {
		return nil, err
	}
	return toFlowRecord(identity), nil
}

func (e *Engine) issuePair(c flows.TokenClaims) (flows.TokenPair, error) {
	pair, err := e.jwtManager.IssuePair(jwt.Claims{ID: c.ID, Email: c.Email, Role: c.Role})
	if err != nil {
		return flows.TokenPair{}, err
	}
	return flows.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (e *Engine) verifyToken(token string) (*flows.TokenClaims, flows.TokenCheck, error) {
	claims, err := e.jwtManager.Verify(token)
	switch {
	case err == nil:
		return &flows.TokenClaims{ID: claims.ID, Email: claims.Email, Role: claims.Role}, flows.TokenValid, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, flows.TokenExpired, err
	default:
		return nil, flows.TokenInvalid, err
	}
}

func (e *Engine) decodeExpired(token string) (*flows.TokenClaims, error) {
	claims, err := e.jwtManager.DecodeIgnoringExpiry(token)
	if err != nil {
		return nil, err
	}
	return &flows.TokenClaims{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

func toFlowRecord(identity *Identity) *flows.IdentityRecord {
	return &flows.IdentityRecord{
		ID:           identity.ID,
		Email:        identity.Email,
		PasswordHash: identity.PasswordHash,
		Role:         string(identity.Role),
		SignupMethod: string(identity.SignupMethod),
		Blocked:      identity.Blocked,
		RefreshToken: identity.RefreshToken,
		Host:         identity,
	}
}

func toClaims(c *flows.TokenClaims) *Claims {
	if c == nil {
		return nil
	}
	return &Claims{ID: c.ID, Email: c.Email, Role: Role(c.Role)}
}
