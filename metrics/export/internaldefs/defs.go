package internaldefs

import (
	"math"

	trybeauth "github.com/pististrybe/trybeauth"
)

// Prefix starts every exported series name.
const Prefix = "trybeauth_"

// CounterDef names one engine counter.
type CounterDef struct {
	ID   trybeauth.MetricID
	Name string
	Help string
}

// Bucket is one latency histogram upper bound, in seconds. Suffix is the
// bound spelled for use inside an instrument name. Upper is +Inf for the last
// bucket.
type Bucket struct {
	LE     string
	Suffix string
	Upper  float64
}

var CounterDefs = []CounterDef{
	{ID: trybeauth.MetricRegisterSuccess, Name: Prefix + "register_success_total", Help: "Identities created by registration."},
	{ID: trybeauth.MetricRegisterDuplicate, Name: Prefix + "register_duplicate_total", Help: "Registrations rejected because the email is taken."},
	{ID: trybeauth.MetricRegisterFailure, Name: Prefix + "register_failure_total", Help: "Registrations that failed for any other reason."},
	{ID: trybeauth.MetricLoginSuccess, Name: Prefix + "login_success_total", Help: "Successful logins."},
	{ID: trybeauth.MetricLoginFailure, Name: Prefix + "login_failure_total", Help: "Failed logins."},
	{ID: trybeauth.MetricGatePassExcluded, Name: Prefix + "gate_pass_excluded_total", Help: "Requests passed as excluded endpoints."},
	{ID: trybeauth.MetricGatePassUnprotected, Name: Prefix + "gate_pass_unprotected_total", Help: "Requests passed because no protected prefix matched."},
	{ID: trybeauth.MetricGatePassAccess, Name: Prefix + "gate_pass_access_total", Help: "Requests passed on a valid access token."},
	{ID: trybeauth.MetricGateRejected, Name: Prefix + "gate_rejected_total", Help: "Requests rejected by the gate."},
	{ID: trybeauth.MetricRotationSuccess, Name: Prefix + "rotation_success_total", Help: "Expired access tokens exchanged for a new pair."},
	{ID: trybeauth.MetricRotationFailure, Name: Prefix + "rotation_failure_total", Help: "Token rotations that failed."},
	{ID: trybeauth.MetricLogout, Name: Prefix + "logout_total", Help: "Sessions ended by logout."},
}

// LatencyName is the Authenticate latency histogram.
const (
	LatencyName = Prefix + "authenticate_latency_seconds"
	LatencyHelp = "Authenticate latency."
)

// AuditDroppedName counts audit events lost to a full dispatcher buffer.
const (
	AuditDroppedName = Prefix + "audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// LatencyBuckets mirror the engine's fixed millisecond buckets.
var LatencyBuckets = [8]Bucket{
	{LE: "0.005", Suffix: "0_005", Upper: 0.005},
	{LE: "0.01", Suffix: "0_01", Upper: 0.01},
	{LE: "0.025", Suffix: "0_025", Upper: 0.025},
	{LE: "0.05", Suffix: "0_05", Upper: 0.05},
	{LE: "0.1", Suffix: "0_1", Upper: 0.1},
	{LE: "0.25", Suffix: "0_25", Upper: 0.25},
	{LE: "0.5", Suffix: "0_5", Upper: 0.5},
	{LE: "+Inf", Suffix: "inf", Upper: math.Inf(1)},
}

// Cumulative turns per-bucket counts into running totals. Missing buckets
// count as zero and extra ones are ignored.
func Cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
