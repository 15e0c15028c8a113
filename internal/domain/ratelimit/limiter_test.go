package ratelimit

import (
	"testing"
	"time"
)

func TestNext_BurstThenReject(t *testing.T) {
	p := Policy{Requests: 3, Window: 3 * time.Second}
	now := time.Unix(1_700_000_000, 0)

	var tat time.Time
	for i := 0; i < 3; i++ {
		d, next := Next(now, tat, p)
		if !d.Allowed {
			t.Fatalf("event %d rejected, want allowed", i+1)
		}
		if want := 2 - i; d.Remaining != want {
			t.Errorf("event %d: Remaining = %d, want %d", i+1, d.Remaining, want)
		}
		tat = next
	}

	d, next := Next(now, tat, p)
	if d.Allowed {
		t.Fatal("fourth event allowed, want rejected")
	}
	if d.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", d.RetryAfter)
	}
	if !next.Equal(tat) {
		t.Errorf("rejected event moved tat from %v to %v", tat, next)
	}
}

func TestNext_RecoversAtSustainedRate(t *testing.T) {
	p := Policy{Requests: 2, Window: 2 * time.Second}
	now := time.Unix(1_700_000_000, 0)

	var tat time.Time
	for i := 0; i < 2; i++ {
		_, tat = Next(now, tat, p)
	}
	if d, _ := Next(now, tat, p); d.Allowed {
		t.Fatal("burst exceeded but event allowed")
	}

	d, _ := Next(now.Add(time.Second), tat, p)
	if !d.Allowed {
		t.Error("event one interval later rejected, want allowed")
	}
}

func TestNext_IdleKeyStartsFresh(t *testing.T) {
	p := Policy{Requests: 1, Window: time.Minute}
	now := time.Unix(1_700_000_000, 0)

	stale := now.Add(-time.Hour)
	d, next := Next(now, stale, p)
	if !d.Allowed {
		t.Fatal("event after long idle rejected")
	}
	if want := now.Add(time.Minute); !next.Equal(want) {
		t.Errorf("tat = %v, want %v", next, want)
	}
}

func TestPolicy_Defaults(t *testing.T) {
	tests := []struct {
		name         string
		p            Policy
		wantInterval time.Duration
		wantBurst    int
	}{
		{"requests per window", Policy{Requests: 10, Window: time.Second}, 100 * time.Millisecond, 10},
		{"explicit burst", Policy{Requests: 10, Burst: 2, Window: time.Second}, 100 * time.Millisecond, 2},
		{"zero requests", Policy{Window: time.Second}, time.Second, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.interval(); got != tt.wantInterval {
				t.Errorf("interval() = %v, want %v", got, tt.wantInterval)
			}
			if got := tt.p.burst(); got != tt.wantBurst {
				t.Errorf("burst() = %d, want %d", got, tt.wantBurst)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if got := Key(ScopeClientIP, "auth", "10.0.0.1"); got != "ip:auth:10.0.0.1" {
		t.Errorf("Key() = %q", got)
	}
}
