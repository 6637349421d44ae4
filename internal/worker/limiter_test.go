package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different provider has its own bucket
	if err := limiter.Wait(ctx, "ollama"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "openai", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1 is consumed
	if limiter.Allow("openai") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("deepseek") {
		t.Errorf("expected allow for other provider")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	_ = limiter.Allow("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "openai"); err == nil {
		t.Error("expected wait to fail when the token cannot arrive before the deadline")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("mock") {
			t.Fatalf("call %d throttled with limiting disabled", i)
		}
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default

	limiter.SetRate("ollama", 0.1, 1) // very slow

	if !limiter.Allow("ollama") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("ollama") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("openai") {
		t.Errorf("other provider should pass")
	}
}
