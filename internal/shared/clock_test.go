package shared

import (
	"testing"
	"time"
)

func TestIDClockNeverRepeatsWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	clock := NewIDClock(func() time.Time { return fixed })

	first := clock.Next()
	second := clock.Next()
	if first != fixed.UnixMilli() {
		t.Fatalf("expected first id %d, got %d", fixed.UnixMilli(), first)
	}
	if second != first+1 {
		t.Fatalf("expected second id %d, got %d", first+1, second)
	}
}

func TestIDClockObserveSkipsLoadedIDs(t *testing.T) {
	fixed := time.UnixMilli(1_000)
	clock := NewIDClock(func() time.Time { return fixed })
	clock.Observe(5_000)

	if got := clock.Next(); got != 5_001 {
		t.Fatalf("expected 5001 after observing 5000, got %d", got)
	}
}
