package prometheus

import (
	"strings"
	"testing"

	"github.com/MrEthical07/cartauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot cartauth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() cartauth.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                      { return f.dropped }

func TestCollectorExposesCounters(t *testing.T) {
	src := &fakeSource{
		snapshot: cartauth.MetricsSnapshot{
			Counters: map[cartauth.MetricID]uint64{
				cartauth.MetricLoginSuccess:         3,
				cartauth.MetricRefreshReuseDetected: 1,
			},
			Histograms: map[cartauth.MetricID][]uint64{},
		},
		dropped: 2,
	}
	c := NewCollectorFromSource(src)

	expected := `
# HELP cartauth_login_success_total Successful logins.
# TYPE cartauth_login_success_total counter
cartauth_login_success_total 3
# HELP cartauth_refresh_reuse_detected_total Superseded refresh tokens presented.
# TYPE cartauth_refresh_reuse_detected_total counter
cartauth_refresh_reuse_detected_total 1
# HELP cartauth_audit_dropped_total Dropped audit events due to dispatcher backpressure.
# TYPE cartauth_audit_dropped_total counter
cartauth_audit_dropped_total 2
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"cartauth_login_success_total",
		"cartauth_refresh_reuse_detected_total",
		"cartauth_audit_dropped_total",
	)
	if err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestCollectorHistogramIsCumulative(t *testing.T) {
	src := &fakeSource{
		snapshot: cartauth.MetricsSnapshot{
			Counters: map[cartauth.MetricID]uint64{},
			Histograms: map[cartauth.MetricID][]uint64{
				cartauth.MetricValidateLatency: {2, 1, 0, 0, 0, 0, 0, 1},
			},
		},
	}

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollectorFromSource(src)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found bool
	for _, mf := range families {
		if mf.GetName() != "cartauth_verify_access_latency_seconds" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 4 {
			t.Fatalf("sample count = %d, want 4", h.GetSampleCount())
		}
		if got := h.GetBucket()[1].GetCumulativeCount(); got != 3 {
			t.Fatalf("le=0.01 bucket = %d, want 3", got)
		}
	}
	if !found {
		t.Fatalf("latency histogram not exported")
	}
}

func TestCollectorLintsClean(t *testing.T) {
	src := &fakeSource{snapshot: cartauth.MetricsSnapshot{Counters: map[cartauth.MetricID]uint64{}}}
	problems, err := testutil.CollectAndLint(NewCollectorFromSource(src))
	if err != nil {
		t.Fatalf("CollectAndLint: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("lint problems: %v", problems)
	}
}
