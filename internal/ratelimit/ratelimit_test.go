package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{
			name:     "burst allows initial requests",
			rps:      1,
			burst:    3,
			calls:    3,
			wantPass: 3,
		},
		{
			name:     "exceeding burst blocks",
			rps:      1,
			burst:    2,
			calls:    5,
			wantPass: 2,
		},
		{
			name:     "per minute budget",
			rps:      PerMinute(10),
			burst:    5,
			calls:    8,
			wantPass: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}

			if passed != tt.wantPass {
				t.Errorf("Allow() passed %d, want %d", passed, tt.wantPass)
			}
		})
	}
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("198.51.100.1")
	if rl.Allow("198.51.100.1") {
		t.Error("first key should be exhausted")
	}

	if !rl.Allow("198.51.100.2") {
		t.Error("second key should be independent and allowed")
	}
}

func TestKeyedRateLimiter_SweepEvictsIdleKeys(t *testing.T) {
	rl := New(1, 1, WithIdleTTL(time.Minute))
	defer rl.Stop()

	var (
		mu  sync.Mutex
		now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	)
	rl.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	rl.Allow("idle")
	advance(30 * time.Second)
	rl.Allow("active")
	advance(45 * time.Second)

	rl.sweep()

	if rl.Len() != 1 {
		t.Fatalf("expected 1 key after sweep, got %d", rl.Len())
	}

	// An evicted key starts over with a full bucket.
	if !rl.Allow("idle") {
		t.Error("evicted key should be allowed again")
	}
}

func TestKeyedRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := New(1, 1)
	rl.Stop()
	rl.Stop()
}
