package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ppiankov/factlens/internal/fetch"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/util"
)

const maxBackendReply = 1 << 20

// Backend is the remote analysis service tried before the local completion
type Backend struct {
	url        string
	httpClient *http.Client
}

// NewBackend creates a backend client. An empty URL yields nil.
func NewBackend(cfg model.BackendConfig, httpCfg model.HTTPConfig) *Backend {
	if cfg.URL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Backend{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
	}
}

// Analyze submits the query as a multipart form and returns the raw reply.
// It makes exactly one request.
func (b *Backend) Analyze(ctx context.Context, text string, mode model.Mode, urls []string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("content", text); err != nil {
		return "", fmt.Errorf("write form: %w", err)
	}
	if err := form.WriteField("analysis_type", string(mode)); err != nil {
		return "", fmt.Errorf("write form: %w", err)
	}
	for _, u := range urls {
		if err := form.WriteField("url", u); err != nil {
			return "", fmt.Errorf("write form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &fetch.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxBackendReply))
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return string(reply), nil
}
