package internaldefs

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

func TestCumulative(t *testing.T) {
	got := Cumulative([]uint64{1, 0, 2})
	want := [8]uint64{1, 1, 3, 3, 3, 3, 3, 3}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if Cumulative(nil) != ([8]uint64{}) {
		t.Fatal("expected zeros for nil input")
	}
}

func TestCounterNamesAreUniqueAndPrefixed(t *testing.T) {
	seen := map[string]bool{}
	ids := map[uint16]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, Prefix) || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %q", def.Name)
		}
		if seen[def.Name] || ids[uint16(def.ID)] {
			t.Fatalf("duplicate counter %q", def.Name)
		}
		seen[def.Name] = true
		ids[uint16(def.ID)] = true
	}
}

func TestLatencyBucketBoundsMatchLabels(t *testing.T) {
	prev := 0.0
	for i, b := range LatencyBuckets {
		if i == len(LatencyBuckets)-1 {
			if !math.IsInf(b.Upper, 1) || b.LE != "+Inf" {
				t.Fatalf("last bucket must be +Inf, got %+v", b)
			}
			break
		}
		if got := strconv.FormatFloat(b.Upper, 'g', -1, 64); got != b.LE {
			t.Fatalf("bucket %d: upper %s does not match label %s", i, got, b.LE)
		}
		if b.Upper <= prev {
			t.Fatalf("bucket %d not ascending", i)
		}
		prev = b.Upper
	}
}
