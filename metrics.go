package cartauth

import internalmetrics "github.com/MrEthical07/cartauth/internal/metrics"

// MetricID identifies a counter in the in-process metrics registry.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricSignupSuccess        = internalmetrics.MetricSignupSuccess
	MetricSignupDuplicate      = internalmetrics.MetricSignupDuplicate
	MetricSignupFailure        = internalmetrics.MetricSignupFailure
	MetricLoginSuccess         = internalmetrics.MetricLoginSuccess
	MetricLoginFailure         = internalmetrics.MetricLoginFailure
	MetricRefreshSuccess       = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure       = internalmetrics.MetricRefreshFailure
	MetricRefreshReuseDetected = internalmetrics.MetricRefreshReuseDetected
	MetricLogout               = internalmetrics.MetricLogout
	MetricSessionRevoked       = internalmetrics.MetricSessionRevoked
	MetricAccessGranted        = internalmetrics.MetricAccessGranted
	MetricAccessDenied         = internalmetrics.MetricAccessDenied
	MetricAdminDenied          = internalmetrics.MetricAdminDenied
	MetricStoreUnavailable     = internalmetrics.MetricStoreUnavailable
	MetricLoginRateLimited     = internalmetrics.MetricLoginRateLimited
	// MetricValidateLatency is the only metric with a latency histogram.
	MetricValidateLatency = internalmetrics.MetricValidateLatency
)

func newMetrics(cfg MetricsConfig) *internalmetrics.Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
