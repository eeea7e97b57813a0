package worker

import (
	"context"
	"testing"
	"time"
)

// tryWait reports whether a request to rawURL may go out without waiting
func tryWait(l *Limiter, rawURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, rawURL) == nil
}

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !tryWait(l3, "https://www.timeanddate.com/worldclock/") {
			t.Fatalf("zero rate should not throttle, request %d refused", i)
		}
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	url := "https://www.timeanddate.com/worldclock/europe.html"
	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "http://example.com", 50*time.Millisecond)
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
	url := "http://example.com"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Token consumed: the next one is a second away
	if tryWait(limiter, url) {
		t.Errorf("expected second request to be throttled")
	}

	if !tryWait(limiter, "http://other.com") {
		t.Errorf("expected other host to pass")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	host := "slow.example"

	limiter.SetHostRate(host, 0.1, 1) // very slow

	if !tryWait(limiter, "http://"+host) {
		t.Errorf("first request should pass")
	}
	if tryWait(limiter, "http://"+host) {
		t.Errorf("second request should be throttled")
	}
	if !tryWait(limiter, "http://fast.com") {
		t.Errorf("other host should pass")
	}
}

func TestLimiter_SetHostRateUnthrottled(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	limiter.SetHostRate("Mirror.Example", 0, 0)

	for i := 0; i < 5; i++ {
		if !tryWait(limiter, "http://mirror.example/page") {
			t.Fatalf("zero host rate should not throttle, request %d refused", i)
		}
	}
}

func TestLimiter_HostsShareCase(t *testing.T) {
	limiter := NewLimiter(0.1, 1)

	if !tryWait(limiter, "https://WWW.TimeAndDate.com/worldclock/europe.html") {
		t.Fatal("first request should pass")
	}
	if tryWait(limiter, "https://www.timeanddate.com/worldclock/asia.html") {
		t.Error("same host in another case should share the limiter")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("http://Example.com:8080/foo")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "example.com:8080" {
		t.Errorf("expected example.com:8080, got %s", host)
	}

	_, err = hostOf("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
