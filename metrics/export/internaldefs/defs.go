package internaldefs

import (
	"github.com/MrEthical07/tokenauth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported alongside the engine counters; its value comes from
// [tokenauth.Engine.AuditDropped] rather than the snapshot.
const (
	AuditDroppedName = "tokenauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

var CounterDefs = []CounterDef{
	{ID: tokenauth.MetricRegisterSuccess, Name: "tokenauth_register_success_total", Help: "Accounts created."},
	{ID: tokenauth.MetricRegisterDuplicate, Name: "tokenauth_register_duplicate_total", Help: "Registrations rejected because the username was taken."},
	{ID: tokenauth.MetricRegisterFailure, Name: "tokenauth_register_failure_total", Help: "Registrations rejected for any other reason."},
	{ID: tokenauth.MetricLoginSuccess, Name: "tokenauth_login_success_total", Help: "Successful logins."},
	{ID: tokenauth.MetricLoginFailure, Name: "tokenauth_login_failure_total", Help: "Failed logins."},
	{ID: tokenauth.MetricRefreshSuccess, Name: "tokenauth_refresh_success_total", Help: "Access tokens minted from a refresh token."},
	{ID: tokenauth.MetricRefreshFailure, Name: "tokenauth_refresh_failure_total", Help: "Refresh attempts rejected."},
	{ID: tokenauth.MetricLogout, Name: "tokenauth_logout_total", Help: "Logout requests handled."},
	{ID: tokenauth.MetricValidateSuccess, Name: "tokenauth_validate_success_total", Help: "Access tokens accepted by the gate."},
	{ID: tokenauth.MetricValidateExpired, Name: "tokenauth_validate_expired_total", Help: "Access tokens rejected as expired."},
	{ID: tokenauth.MetricValidateInvalid, Name: "tokenauth_validate_invalid_total", Help: "Access tokens rejected as missing or invalid."},
}

var HistogramDefs = []HistogramDef{
	{ID: tokenauth.MetricValidateLatency, Name: "tokenauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine's eighth
// bucket is +Inf.
var HistogramUpperBounds = [7]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket in exporters without native histograms.
var HistogramBoundSuffix = [8]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range raw {
		running += raw[i]
		out[i] = running
	}
	return out
}
