package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestLimiter(t *testing.T) (*TokenBucketLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTokenBucketLimiter(rdb), mr
}

func TestAllowWithinBurst(t *testing.T) {
	lim, _ := newTestLimiter(t)
	bucket := Bucket{RequestsPerMinute: 60, BurstSize: 3}

	for i := 0; i < 3; i++ {
		dec, err := lim.Allow(context.Background(), "tools", "client-a", bucket)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !dec.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	dec, err := lim.Allow(context.Background(), "tools", "client-a", bucket)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if dec.Allowed {
		t.Fatal("burst exhausted, request should be denied")
	}
	if dec.RetryAfter < time.Second {
		t.Errorf("RetryAfter = %v, want >= 1s", dec.RetryAfter)
	}
}

func TestSubjectsAreIsolated(t *testing.T) {
	lim, _ := newTestLimiter(t)
	bucket := Bucket{RequestsPerMinute: 60, BurstSize: 1}

	if dec, _ := lim.Allow(context.Background(), "tools", "client-a", bucket); !dec.Allowed {
		t.Fatal("first request for client-a should pass")
	}
	if dec, _ := lim.Allow(context.Background(), "tools", "client-a", bucket); dec.Allowed {
		t.Fatal("second request for client-a should be denied")
	}
	if dec, _ := lim.Allow(context.Background(), "tools", "client-b", bucket); !dec.Allowed {
		t.Fatal("client-b has its own bucket")
	}
}

func TestRefillAfterElapsedTime(t *testing.T) {
	lim, _ := newTestLimiter(t)
	bucket := Bucket{RequestsPerMinute: 60, BurstSize: 1} // 1 token/sec

	if dec, _ := lim.Allow(context.Background(), "tools", "client-a", bucket); !dec.Allowed {
		t.Fatal("first request should pass")
	}
	if dec, _ := lim.Allow(context.Background(), "tools", "client-a", bucket); dec.Allowed {
		t.Fatal("bucket should be empty")
	}

	// Refill is computed from the caller-supplied wall clock.
	time.Sleep(1100 * time.Millisecond)
	if dec, _ := lim.Allow(context.Background(), "tools", "client-a", bucket); !dec.Allowed {
		t.Fatal("bucket should have refilled")
	}
}

func TestDisabledBucketAlwaysAllows(t *testing.T) {
	lim, _ := newTestLimiter(t)
	dec, err := lim.Allow(context.Background(), "tools", "client-a", Bucket{})
	if err != nil || !dec.Allowed {
		t.Fatalf("disabled bucket: dec=%+v err=%v", dec, err)
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var lim *TokenBucketLimiter
	dec, err := lim.Allow(context.Background(), "tools", "x", Bucket{RequestsPerMinute: 1, BurstSize: 1})
	if err != nil || !dec.Allowed {
		t.Fatalf("nil limiter: dec=%+v err=%v", dec, err)
	}
}
