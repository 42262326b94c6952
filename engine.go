package trybeauth

import (
	"log/slog"

	internalaudit "github.com/pististrybe/trybeauth/internal/audit"
	"github.com/pististrybe/trybeauth/internal/flows"
	"github.com/pististrybe/trybeauth/jwt"
	"github.com/pististrybe/trybeauth/password"
)

// Engine runs registration, login and request authentication against an
// IdentityStore. Engine methods are safe for concurrent use.
type Engine struct {
	config       Config
	store        IdentityStore
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	routes       *routeTable
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	flowDeps     flows.Deps
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the Engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// RotatedTokenHeader is the response header that carries a rotated access token.
func (e *Engine) RotatedTokenHeader() string {
	return e.config.Gate.RotatedTokenHeader
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, args ...any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}
