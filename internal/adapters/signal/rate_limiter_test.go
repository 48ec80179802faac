package signal

import (
	"testing"
	"time"
)

func TestJoinRateLimiter(t *testing.T) {
	rl := NewJoinRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("c1") {
			t.Fatalf("attempt %d blocked inside limit", i+1)
		}
	}
	if rl.Allow("c1") {
		t.Error("attempt over limit allowed")
	}
	if !rl.Allow("c2") {
		t.Error("independent connection blocked")
	}
}

func TestJoinRateLimiterWindowExpiry(t *testing.T) {
	rl := NewJoinRateLimiter(1, 10*time.Millisecond)

	if !rl.Allow("c1") {
		t.Fatal("first attempt blocked")
	}
	if rl.Allow("c1") {
		t.Fatal("second attempt inside window allowed")
	}
	time.Sleep(20 * time.Millisecond)
	if !rl.Allow("c1") {
		t.Error("attempt after window expiry blocked")
	}
}

func TestJoinRateLimiterDisabled(t *testing.T) {
	rl := NewJoinRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("c1") {
			t.Fatal("disabled limiter blocked an attempt")
		}
	}
}

func TestJoinRateLimiterForget(t *testing.T) {
	rl := NewJoinRateLimiter(1, time.Hour)
	rl.Allow("c1")
	rl.Forget("c1")
	if !rl.Allow("c1") {
		t.Error("attempt blocked after Forget")
	}
}
