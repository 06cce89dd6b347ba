package retrieve

import (
	"context"
	"net/url"

	"github.com/ppiankov/factlens/internal/extract/adapters"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/ppiankov/factlens/internal/worker"
	"go.uber.org/zap"
)

// SubmittedRetriever reads the reference URLs a user attached to a query
type SubmittedRetriever struct {
	fetcher  Fetcher
	registry *adapters.Registry
	cfg      model.RetrievalConfig
	workers  int
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewSubmittedRetriever creates a submitted-URL retriever
func NewSubmittedRetriever(fetcher Fetcher, cfg model.RetrievalConfig, workers int, metrics *telemetry.Metrics, logger *zap.Logger) *SubmittedRetriever {
	return &SubmittedRetriever{
		fetcher:  fetcher,
		registry: adapters.NewSubmittedRegistry(cfg),
		cfg:      cfg,
		workers:  workers,
		metrics:  metrics,
		logger:   telemetry.OrNop(logger),
	}
}

// Fetch reads up to MaxSubmittedURLs http(s) URLs. Unreadable pages and
// pages with too little text are dropped.
func (r *SubmittedRetriever) Fetch(ctx context.Context, urls []string) []model.EvidenceDocument {
	var valid []string
	seen := make(map[string]bool)
	for _, raw := range urls {
		if len(valid) == r.cfg.MaxSubmittedURLs {
			break
		}
		if seen[raw] || !isWebURL(raw) {
			continue
		}
		seen[raw] = true
		valid = append(valid, raw)
	}
	if len(valid) == 0 {
		return nil
	}

	docs := compact(worker.FanOut(ctx, r.workers, valid, r.fetchOne))

	out := docs[:0]
	for _, doc := range docs {
		if runeLen(doc.Body) > r.cfg.MinNewsBody {
			out = append(out, doc)
		}
	}
	return out
}

func (r *SubmittedRetriever) fetchOne(ctx context.Context, link string) *model.EvidenceDocument {
	page, err := r.fetcher.Fetch(ctx, link)
	r.metrics.SourceFetch(sourceSubmitted, err == nil)
	if err != nil {
		r.logger.Debug("failed to fetch submitted url", zap.String("url", link), zap.Error(err))
		return nil
	}

	doc, err := r.registry.Extract(page.HTML(), link)
	if err != nil {
		r.logger.Debug("failed to extract submitted url", zap.String("url", link), zap.Error(err))
		return nil
	}
	doc.Kind = model.EvidenceKindSubmitted
	return doc
}

func isWebURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
