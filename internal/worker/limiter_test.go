package worker

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
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

func TestNewLimiterFromConfig(t *testing.T) {
	if l := NewLimiterFromConfig(model.RateLimitConfig{}); l != nil {
		t.Error("expected nil limiter for zero rate")
	}

	l := NewLimiterFromConfig(model.DefaultConfig().RateLimiting)
	if l == nil {
		t.Fatal("expected limiter for default config")
	}
	if l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
}

func TestLimiter_NilNeverWaits(t *testing.T) {
	var limiter *Limiter

	if err := limiter.Wait(context.Background(), "https://n.news.naver.com/x"); err != nil {
		t.Errorf("expected nil limiter to pass, got %v", err)
	}
	if !limiter.Allow("https://n.news.naver.com/x") {
		t.Error("expected nil limiter to allow")
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://search.naver.com/search.naver"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "https://ko.wikipedia.org"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "https://namu.wiki", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	if duration := time.Since(start); duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.WaitWithDelay(ctx, "https://namu.wiki", time.Second); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "https://n.news.naver.com/article/1"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Token consumed; same host shares the bucket regardless of path or case
	if limiter.Allow("https://N.NEWS.NAVER.COM/article/2") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// Different host should be allowed
	if !limiter.Allow("https://news.naver.com/main") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default

	limiter.SetHostRate("search.naver.com", 0.1, 1) // very slow

	if !limiter.Allow("https://search.naver.com/search.naver") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("https://search.naver.com/search.naver") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("https://ko.wikipedia.org") {
		t.Errorf("other host should pass")
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("https://Ko.Wikipedia.org:443/w/api.php")
	if err != nil {
		t.Fatalf("extractHost failed: %v", err)
	}
	if host != "ko.wikipedia.org" {
		t.Errorf("expected ko.wikipedia.org, got %s", host)
	}

	if _, err := extractHost("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := extractHost("/relative/path"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}
