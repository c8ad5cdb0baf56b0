package internaldefs

import (
	"github.com/MrEthical07/cartauth"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   cartauth.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   cartauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: cartauth.MetricSignupSuccess, Name: "cartauth_signup_success_total", Help: "Successful signups."},
	{ID: cartauth.MetricSignupDuplicate, Name: "cartauth_signup_duplicate_total", Help: "Signups rejected because the email is taken."},
	{ID: cartauth.MetricSignupFailure, Name: "cartauth_signup_failure_total", Help: "Signups that failed for any other reason."},
	{ID: cartauth.MetricLoginSuccess, Name: "cartauth_login_success_total", Help: "Successful logins."},
	{ID: cartauth.MetricLoginFailure, Name: "cartauth_login_failure_total", Help: "Failed logins."},
	{ID: cartauth.MetricRefreshSuccess, Name: "cartauth_refresh_success_total", Help: "Successful access renewals."},
	{ID: cartauth.MetricRefreshFailure, Name: "cartauth_refresh_failure_total", Help: "Failed access renewals."},
	{ID: cartauth.MetricRefreshReuseDetected, Name: "cartauth_refresh_reuse_detected_total", Help: "Superseded refresh tokens presented."},
	{ID: cartauth.MetricLogout, Name: "cartauth_logout_total", Help: "Logouts."},
	{ID: cartauth.MetricSessionRevoked, Name: "cartauth_session_revoked_total", Help: "Sessions revoked by an administrator."},
	{ID: cartauth.MetricAccessGranted, Name: "cartauth_access_granted_total", Help: "Requests admitted by access verification."},
	{ID: cartauth.MetricAccessDenied, Name: "cartauth_access_denied_total", Help: "Requests refused by access verification."},
	{ID: cartauth.MetricAdminDenied, Name: "cartauth_admin_denied_total", Help: "Requests refused by the admin check."},
	{ID: cartauth.MetricStoreUnavailable, Name: "cartauth_store_unavailable_total", Help: "Credential store failures."},
	{ID: cartauth.MetricLoginRateLimited, Name: "cartauth_login_rate_limited_total", Help: "Logins rejected by the failed-attempt limiter."},
}

var HistogramDefs = []HistogramDef{
	{ID: cartauth.MetricValidateLatency, Name: "cartauth_verify_access_latency_seconds", Help: "Access verification latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds; the last
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
