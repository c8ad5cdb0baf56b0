package internaldefs

import (
	"testing"

	"github.com/MrEthical07/cartauth"
)

func TestEveryCounterIsDefinedOnce(t *testing.T) {
	seen := map[cartauth.MetricID]string{}
	names := map[string]bool{}
	for _, def := range CounterDefs {
		if prev, ok := seen[def.ID]; ok {
			t.Fatalf("metric id %d defined twice (%s, %s)", def.ID, prev, def.Name)
		}
		if names[def.Name] {
			t.Fatalf("metric name %s defined twice", def.Name)
		}
		seen[def.ID] = def.Name
		names[def.Name] = true
	}
	// every id except the latency histogram has a counter
	if len(CounterDefs) != int(cartauth.MetricValidateLatency) {
		t.Fatalf("CounterDefs has %d entries, want %d", len(CounterDefs), cartauth.MetricValidateLatency)
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 0, 3}))
	want := [8]uint64{1, 3, 3, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("CumulativeBuckets = %v, want %v", got, want)
	}
	if len(HistogramUpperBounds)+1 != len(HistogramBoundSuffix) {
		t.Fatalf("bounds and suffixes disagree")
	}
}
