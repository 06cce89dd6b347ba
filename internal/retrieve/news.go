package retrieve

import (
	"context"
	"net/url"
	"time"

	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/extract/adapters"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/ppiankov/factlens/internal/worker"
	"go.uber.org/zap"
)

// searchDateLayout is the YYYY.MM.DD form the news search expects
const searchDateLayout = "2006.01.02"

// NewsRetriever searches the news portal for a keyword and extracts the
// top articles
type NewsRetriever struct {
	fetcher  Fetcher
	registry *adapters.Registry
	cfg      model.RetrievalConfig
	workers  int
	metrics  *telemetry.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewNewsRetriever creates a news retriever
func NewNewsRetriever(fetcher Fetcher, cfg model.RetrievalConfig, workers int, metrics *telemetry.Metrics, logger *zap.Logger) *NewsRetriever {
	return &NewsRetriever{
		fetcher:  fetcher,
		registry: adapters.NewRegistry(cfg),
		cfg:      cfg,
		workers:  workers,
		metrics:  metrics,
		logger:   telemetry.OrNop(logger),
		now:      time.Now,
	}
}

// SetClock replaces the clock used for the search date window
func (r *NewsRetriever) SetClock(now func() time.Time) {
	r.now = now
}

// SearchURL builds the news search URL for keyword, restricted to today
func (r *NewsRetriever) SearchURL(keyword string) string {
	today := r.now().Format(searchDateLayout)

	params := url.Values{}
	params.Set("ssc", "tab.news.all")
	params.Set("query", keyword)
	params.Set("sm", "tab_opt")
	params.Set("sort", "1")
	params.Set("photo", "0")
	params.Set("field", "0")
	params.Set("pd", "-1")
	params.Set("ds", today)
	params.Set("de", today)
	params.Set("docid", "")
	params.Set("related", "0")
	params.Set("mynews", "0")
	params.Set("office_type", "0")
	params.Set("office_section_code", "0")
	params.Set("news_office_checked", "")
	params.Set("nso", "so:dd,p:all")
	params.Set("is_sug_officeid", "0")
	params.Set("office_category", "0")
	params.Set("service_area", "0")

	return r.cfg.NewsSearchURL + "?" + params.Encode()
}

// SearchAndFetch returns at most MaxDocuments articles for keyword, in
// result-page order. It never fails; every problem yields fewer documents.
func (r *NewsRetriever) SearchAndFetch(ctx context.Context, keyword string) []model.EvidenceDocument {
	searchURL := r.SearchURL(keyword)
	r.logger.Debug("searching news", zap.String("keyword", keyword))

	page, err := r.fetcher.Fetch(ctx, searchURL)
	r.metrics.SourceFetch(sourceNewsSearch, err == nil)
	if err != nil {
		r.logger.Warn("news search failed", zap.String("keyword", keyword), zap.Error(err))
		return nil
	}

	links := extract.NewsLinks(page.HTML(), r.cfg.MaxCandidateLinks)
	if len(links) > r.cfg.MaxDocuments {
		links = links[:r.cfg.MaxDocuments]
	}
	r.logger.Debug("found news links", zap.String("keyword", keyword), zap.Int("count", len(links)))
	if len(links) == 0 {
		return nil
	}

	articles := worker.FanOut(ctx, r.workers, links, r.fetchArticle)

	docs := make([]model.EvidenceDocument, 0, len(articles))
	for _, doc := range compact(articles) {
		if runeLen(doc.Body) > r.cfg.MinNewsBody {
			docs = append(docs, doc)
		}
	}
	return docs
}

// fetchArticle returns nil when the article cannot be fetched or read
func (r *NewsRetriever) fetchArticle(ctx context.Context, link string) *model.EvidenceDocument {
	page, err := r.fetcher.Fetch(ctx, link)
	r.metrics.SourceFetch(sourceNewsPage, err == nil)
	if err != nil {
		r.logger.Debug("failed to fetch article", zap.String("url", link), zap.Error(err))
		return nil
	}

	doc, err := r.registry.Extract(page.HTML(), link)
	if err != nil {
		r.logger.Debug("failed to extract article", zap.String("url", link), zap.Error(err))
		return nil
	}
	return doc
}
