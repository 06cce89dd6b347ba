package retrieve

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/factlens/internal/extract/adapters"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/ppiankov/factlens/internal/worker"
	"go.uber.org/zap"
)

// searchResponse is the subset of the MediaWiki search API we read
type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// summaryResponse is the subset of the REST page summary we read
type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// WikiRetriever looks keywords up on Korean Wikipedia and namu.wiki
type WikiRetriever struct {
	fetcher  Fetcher
	namuwiki *adapters.NamuwikiAdapter
	cfg      model.RetrievalConfig
	workers  int
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewWikiRetriever creates a wiki retriever
func NewWikiRetriever(fetcher Fetcher, cfg model.RetrievalConfig, workers int, metrics *telemetry.Metrics, logger *zap.Logger) *WikiRetriever {
	return &WikiRetriever{
		fetcher:  fetcher,
		namuwiki: adapters.NewNamuwikiAdapter(cfg.WikiBodyLimit),
		cfg:      cfg,
		workers:  workers,
		metrics:  metrics,
		logger:   telemetry.OrNop(logger),
	}
}

// Search looks up the first keywords and returns at most MaxDocuments
// entries with unique (case-insensitive) titles. Keywords keep their order;
// within a keyword Wikipedia results precede namu.wiki.
func (r *WikiRetriever) Search(ctx context.Context, keywords []string) []model.EvidenceDocument {
	if len(keywords) > r.cfg.MaxWikiKeywords {
		keywords = keywords[:r.cfg.MaxWikiKeywords]
	}

	perKeyword := worker.FanOut(ctx, r.workers, keywords, r.searchKeyword)

	var results []model.EvidenceDocument
	seen := make(map[string]bool)
	for _, docs := range perKeyword {
		for _, doc := range docs {
			key := strings.ToLower(doc.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, doc)
		}
	}

	if len(results) > r.cfg.MaxDocuments {
		results = results[:r.cfg.MaxDocuments]
	}
	return results
}

// searchKeyword queries both wikis for one keyword concurrently
func (r *WikiRetriever) searchKeyword(ctx context.Context, keyword string) []model.EvidenceDocument {
	lookups := []func(context.Context, string) []model.EvidenceDocument{
		r.SearchWikipedia,
		r.SearchNamuwiki,
	}

	found := worker.FanOut(ctx, len(lookups), lookups, func(ctx context.Context, lookup func(context.Context, string) []model.EvidenceDocument) []model.EvidenceDocument {
		return lookup(ctx, keyword)
	})

	var docs []model.EvidenceDocument
	for _, set := range found {
		docs = append(docs, set...)
	}
	return docs
}

// SearchWikipedia runs a title search and reads the summary of the top pages.
// Pages whose summary cannot be fetched are skipped.
func (r *WikiRetriever) SearchWikipedia(ctx context.Context, keyword string) []model.EvidenceDocument {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", keyword)
	params.Set("format", "json")
	params.Set("origin", "*")
	params.Set("srlimit", strconv.Itoa(r.cfg.WikiSearchLimit))

	var search searchResponse
	err := r.fetcher.FetchJSON(ctx, r.cfg.WikipediaBaseURL+"/w/api.php?"+params.Encode(), &search)
	r.metrics.SourceFetch(sourceWikipedia, err == nil)
	if err != nil {
		r.logger.Warn("wikipedia search failed", zap.String("keyword", keyword), zap.Error(err))
		return nil
	}

	var titles []string
	for _, page := range search.Query.Search {
		if len(titles) == r.cfg.WikiSummaryPages {
			break
		}
		titles = append(titles, page.Title)
	}
	if len(titles) == 0 {
		return nil
	}

	return compact(worker.FanOut(ctx, r.workers, titles, r.fetchSummary))
}

func (r *WikiRetriever) fetchSummary(ctx context.Context, title string) *model.EvidenceDocument {
	var summary summaryResponse
	err := r.fetcher.FetchJSON(ctx, r.cfg.WikipediaBaseURL+"/api/rest_v1/page/summary/"+url.PathEscape(title), &summary)
	r.metrics.SourceFetch(sourceWikipedia, err == nil)
	if err != nil {
		r.logger.Debug("wikipedia summary failed", zap.String("title", title), zap.Error(err))
		return nil
	}

	doc := &model.EvidenceDocument{
		Kind:   model.EvidenceKindWikipedia,
		Title:  summary.Title,
		URL:    summary.ContentURLs.Desktop.Page,
		Body:   summary.Extract,
		Source: model.EvidenceKindWikipedia.Label(),
	}
	if doc.Title == "" {
		doc.Title = title
	}
	if doc.URL == "" {
		doc.URL = r.cfg.WikipediaBaseURL + "/wiki/" + url.PathEscape(title)
	}
	return doc
}

// SearchNamuwiki reads the namu.wiki page named exactly like keyword
func (r *WikiRetriever) SearchNamuwiki(ctx context.Context, keyword string) []model.EvidenceDocument {
	pageURL := r.cfg.NamuwikiBaseURL + "/w/" + url.PathEscape(keyword)

	page, err := r.fetcher.Fetch(ctx, pageURL)
	r.metrics.SourceFetch(sourceNamuwiki, err == nil)
	if err != nil {
		r.logger.Debug("namuwiki fetch failed", zap.String("keyword", keyword), zap.Error(err))
		return nil
	}

	doc, err := r.namuwiki.Extract(page.HTML(), pageURL)
	if err != nil {
		if !errors.Is(err, adapters.ErrNotFound) {
			r.logger.Debug("namuwiki extract failed", zap.String("keyword", keyword), zap.Error(err))
		}
		return nil
	}

	if runeLen(doc.Body) < r.cfg.MinWikiBody {
		return nil
	}

	doc.Title = keyword
	return []model.EvidenceDocument{*doc}
}
