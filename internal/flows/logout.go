package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	UpdateRefreshToken func(context.Context, string, string) error
	WrapInternal       func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metric int
	Event  string
}

// RunLogout clears the identity's stored refresh token. The gate rejects
// every later request carrying one of that identity's access tokens until the
// next login.
func RunLogout(ctx context.Context, identityID string, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.WrapInternal == nil {
		deps.WrapInternal = func(err error) error { return err }
	}

	if err := deps.UpdateRefreshToken(ctx, identityID, ""); err != nil {
		err = deps.WrapInternal(err)
		deps.EmitAudit(ctx, deps.Event, false, identityID, err, nil)
		return err
	}

	deps.MetricInc(deps.Metric)
	deps.EmitAudit(ctx, deps.Event, true, identityID, nil, nil)
	return nil
}
