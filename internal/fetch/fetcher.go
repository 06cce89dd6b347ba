package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/util"
	"github.com/ppiankov/factlens/internal/worker"
)

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptJSON = "application/json"
)

// ErrDisallowed is returned when robots.txt forbids the URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher performs browser-like GET requests against evidence sources
type Fetcher struct {
	httpClient     *http.Client
	userAgent      string
	acceptLanguage string
	maxBytes       int64
	limiter        *worker.Limiter      // Optional per-domain pacing
	robots         *util.RobotsChecker // Optional robots.txt compliance
}

// NewFetcher creates a Fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	return newFetcher(cfg, limiter, transport)
}

func newFetcher(cfg model.HTTPConfig, limiter *worker.Limiter, transport *http.Transport) *Fetcher {
	var robots *util.RobotsChecker
	if cfg.RespectRobots {
		robots = util.NewRobotsCheckerWithTransport(cfg.UserAgent, cfg.Timeout, time.Hour, transport)
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:      cfg.UserAgent,
		acceptLanguage: cfg.AcceptLanguage,
		maxBytes:       maxBytes,
		limiter:        limiter,
		robots:         robots,
	}
}

// Result contains the fetched body and response metadata
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
}

// HTML returns the body as a string
func (r *Result) HTML() string {
	return string(r.Body)
}

// Fetch retrieves an HTML page
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	return f.get(ctx, rawURL, acceptHTML)
}

// FetchJSON retrieves a JSON document and decodes it into v
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string, v any) error {
	result, err := f.get(ctx, rawURL, acceptJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result.Body, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, accept string) (*Result, error) {
	if err := f.admit(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	if f.acceptLanguage != "" {
		req.Header.Set("Accept-Language", f.acceptLanguage)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// admit applies robots.txt and the per-domain rate limit
func (f *Fetcher) admit(ctx context.Context, rawURL string) error {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	return nil
}
