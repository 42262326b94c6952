package trybeauth

import (
	"context"
	"time"

	"github.com/pististrybe/trybeauth/internal/flows"
)

// Authenticate decides whether a request may reach its handler.
//
// The result is always populated; Authenticate never returns an error of its
// own. On AuthRotated the caller must send AccessToken back in the
// RotatedTokenHeader response header. Authenticate writes nothing to any
// response.
func (e *Engine) Authenticate(ctx context.Context, req AuthRequest) AuthResult {
	if e == nil || e.store == nil {
		return AuthResult{State: AuthRejected, Err: AsError(ErrEngineNotReady)}
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}
	}()

	res := flows.RunAuthenticate(ctx, flows.GateInput{
		Method:        req.Method,
		Path:          req.Path,
		Authorization: req.Authorization,
	}, e.flowDeps.Authenticate)

	out := AuthResult{Claims: toClaims(res.Claims)}
	switch res.State {
	case flows.GateExcluded:
		out.State = AuthExcluded
	case flows.GateUnprotected:
		out.State = AuthUnprotected
	case flows.GateAccessValid:
		out.State = AuthAccessValid
	case flows.GateRotated:
		out.State = AuthRotated
		out.AccessToken = res.AccessToken
	default:
		out.State = AuthRejected
		out.Claims = nil
		out.Err = AsError(res.Err)
		if out.Err == nil {
			out.Err = ErrInternal
		}
	}
	return out
}
