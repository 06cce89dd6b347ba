package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/cache"
	"github.com/temoto/robotstxt"
)

// RobotsChecker checks robots.txt compliance. Parsed files are memoized per host.
type RobotsChecker struct {
	cache      *cache.Memory[*robotstxt.RobotsData]
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a new robots.txt checker
func NewRobotsChecker(userAgent string, timeout time.Duration, ttl time.Duration) *RobotsChecker {
	return NewRobotsCheckerWithTransport(userAgent, timeout, ttl, nil)
}

// NewRobotsCheckerWithTransport creates a robots.txt checker whose requests
// go through transport. A nil transport uses http.DefaultTransport.
func NewRobotsCheckerWithTransport(userAgent string, timeout time.Duration, ttl time.Duration, transport http.RoundTripper) *RobotsChecker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RobotsChecker{
		cache: cache.NewMemory[*robotstxt.RobotsData](ttl, 2*ttl),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt
// Returns (allowed, crawlDelay, error)
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	data, err := r.getRobotsData(ctx, parsed.Host, robotsURL)
	if err != nil {
		// Unreachable robots.txt allows by default
		return true, 0, nil
	}

	agent := NormalizeUserAgent(r.userAgent)
	path := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}
	allowed := data.TestAgent(path, agent)

	crawlDelay := time.Duration(0)
	if group := data.FindGroup(agent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return allowed, crawlDelay, nil
}

// getRobotsData fetches and caches robots.txt data
func (r *RobotsChecker) getRobotsData(ctx context.Context, host string, robotsURL string) (*robotstxt.RobotsData, error) {
	if data, ok := r.cache.Get(host); ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Status-based rules: 4xx allows all, 5xx disallows all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.cache.Set(host, data)

	return data, nil
}

// Clear clears the robots.txt cache
func (r *RobotsChecker) Clear() {
	r.cache.Clear()
}

// NormalizeUserAgent normalizes the user agent string for robots.txt matching
func NormalizeUserAgent(ua string) string {
	// Product name (first token) without version
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		product := strings.Split(parts[0], "/")[0]
		return product
	}
	return ua
}
