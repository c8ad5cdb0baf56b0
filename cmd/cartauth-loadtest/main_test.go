package main

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %v, want 5", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %v, want 10", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty p50 = %v", got)
	}
}

func TestRunPhaseCountsEveryOp(t *testing.T) {
	stats := runPhase(100, 4, 1, func(_ *rand.Rand, i int) error {
		if i%10 == 0 {
			return errTest
		}
		return nil
	})
	if stats.ops != 100 || stats.failures != 10 {
		t.Fatalf("ops=%d failures=%d, want 100/10", stats.ops, stats.failures)
	}
}

var errTest = errors.New("test")
