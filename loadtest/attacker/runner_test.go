package attacker

import (
	"testing"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

func TestResultClassification(t *testing.T) {
	cases := []struct {
		name     string
		method   string
		code     uint16
		wantMiss bool
		wantOK   bool
	}{
		{"get hit", "GET", 200, false, true},
		{"put ok", "PUT", 200, false, true},
		{"get of evicted key", "GET", 404, true, true},
		{"put rejected", "PUT", 400, false, false},
		{"put not found", "DELETE", 404, false, false},
		{"server error", "GET", 500, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := &vegeta.Result{Method: tc.method, Code: tc.code}
			if got := isCacheMiss(res); got != tc.wantMiss {
				t.Fatalf("isCacheMiss=%v, want %v", got, tc.wantMiss)
			}
			if got := succeeded(res); got != tc.wantOK {
				t.Fatalf("succeeded=%v, want %v", got, tc.wantOK)
			}
		})
	}
}

func TestEffectiveRatio(t *testing.T) {
	if r := effectiveRatio(0, 0); r != 0 {
		t.Fatalf("empty run must report 0, got %f", r)
	}
	if r := effectiveRatio(3, 4); r != 0.75 {
		t.Fatalf("want 0.75, got %f", r)
	}
}
