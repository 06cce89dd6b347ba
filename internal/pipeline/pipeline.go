package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/factlens/internal/evidence"
	"github.com/ppiankov/factlens/internal/fetch"
	"github.com/ppiankov/factlens/internal/keywords"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/retrieve"
	"github.com/ppiankov/factlens/internal/security"
	"github.com/ppiankov/factlens/internal/telemetry"
	"github.com/ppiankov/factlens/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UnavailableSummary is reported when every analysis attempt failed
const UnavailableSummary = "현재 분석을 수행할 수 없습니다. 잠시 후 다시 시도해 주세요."

// ErrBlocked is returned by operations that refuse injection attempts
var ErrBlocked = errors.New("query blocked by security filter")

// Prepared is a query ready for analysis
type Prepared struct {
	Query    model.RawQuery
	Mode     model.Mode
	Text     string // Sanitized user text
	Keywords []string
	Evidence evidence.Bundle
	System   string // Assembled system prompt
}

// Attempt is one analysis tier. Attempts run in order until one returns a reply.
type Attempt struct {
	Name string
	Run  func(ctx context.Context, in *Prepared) (string, error)
}

// Deps are the collaborators of a Pipeline. Nil fields disable the feature
// they back; Fetcher defaults to a fetch.Fetcher built from the config and
// SubmittedFetcher to a fetch.NewPublicFetcher.
type Deps struct {
	Provider         llm.Provider
	Fetcher          retrieve.Fetcher
	SubmittedFetcher retrieve.Fetcher // Used for caller-supplied URLs only
	Backend          *Backend
	Logger           *zap.Logger
	Metrics          *telemetry.Metrics
}

// Pipeline orchestrates the complete analysis process
type Pipeline struct {
	config    *model.Config
	filter    *security.Filter
	keywords  *keywords.Extractor
	news      *retrieve.NewsRetriever
	wiki      *retrieve.WikiRetriever
	submitted *retrieve.SubmittedRetriever
	provider  llm.Provider // Optional completion provider (nil if disabled)
	attempts  []Attempt
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger, metrics *telemetry.Metrics) *Pipeline {
	logger = telemetry.OrNop(logger)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		// Don't fail startup, analysis falls through to the remaining tiers
		logger.Warn("failed to initialize LLM provider", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		provider = nil
	}

	limiter := worker.NewLimiterFromConfig(cfg.RateLimiting)

	return New(cfg, Deps{
		Provider:         provider,
		Fetcher:          fetch.NewFetcher(cfg.HTTP, limiter),
		SubmittedFetcher: fetch.NewPublicFetcher(cfg.HTTP, limiter),
		Backend:          NewBackend(cfg.Backend, cfg.HTTP),
		Logger:           logger,
		Metrics:          metrics,
	})
}

// New creates a pipeline from explicit collaborators
func New(cfg *model.Config, deps Deps) *Pipeline {
	logger := telemetry.OrNop(deps.Logger)

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.NewFetcher(cfg.HTTP, nil)
	}
	submittedFetcher := deps.SubmittedFetcher
	if submittedFetcher == nil {
		submittedFetcher = fetch.NewPublicFetcher(cfg.HTTP, nil)
	}

	workers := cfg.Concurrency.FetchWorkers

	p := &Pipeline{
		config:    cfg,
		filter:    security.NewFilter(logger),
		keywords:  keywords.NewExtractor(deps.Provider, cfg.Keywords, cfg.Retrieval.MaxKeywords, logger),
		news:      retrieve.NewNewsRetriever(fetcher, cfg.Retrieval, workers, deps.Metrics, logger),
		wiki:      retrieve.NewWikiRetriever(fetcher, cfg.Retrieval, workers, deps.Metrics, logger),
		submitted: retrieve.NewSubmittedRetriever(submittedFetcher, cfg.Retrieval, workers, deps.Metrics, logger),
		provider:  deps.Provider,
		logger:    logger,
		metrics:   deps.Metrics,
	}

	if deps.Backend != nil {
		backend := deps.Backend
		p.attempts = append(p.attempts, Attempt{
			Name: "backend",
			Run: func(ctx context.Context, in *Prepared) (string, error) {
				return backend.Analyze(ctx, in.Text, in.Mode, in.Query.URLs)
			},
		})
	}
	if deps.Provider != nil {
		p.attempts = append(p.attempts, Attempt{
			Name: deps.Provider.Name(),
			Run:  p.complete,
		})
	}

	return p
}

// SetClock replaces the clock used for date-scoped news searches
func (p *Pipeline) SetClock(now func() time.Time) {
	p.news.SetClock(now)
}

// Attempts returns the names of the configured analysis tiers, in order
func (p *Pipeline) Attempts() []string {
	names := make([]string, len(p.attempts))
	for i, a := range p.attempts {
		names[i] = a.Name
	}
	return names
}

// ProviderAvailable reports whether the completion provider answers.
// It is false when no provider is configured.
func (p *Pipeline) ProviderAvailable(ctx context.Context) bool {
	if p.provider == nil {
		return false
	}
	return p.provider.IsAvailable(ctx)
}

// Analyze runs a query through the whole pipeline. It never fails: blocked
// queries get the canned rejection and every other failure degrades to a
// well-formed result.
func (p *Pipeline) Analyze(ctx context.Context, q model.RawQuery) model.AnalysisResult {
	start := time.Now()
	mode := model.ParseMode(string(q.Mode))

	if p.blocked(q.Text) {
		p.metrics.Analysis(string(mode), "blocked", time.Since(start).Seconds())
		return security.Rejection()
	}

	in := p.Prepare(ctx, q)
	result, outcome := p.runAttempts(ctx, in)

	p.metrics.Analysis(string(mode), outcome, time.Since(start).Seconds())
	return result
}

// AnalyzeStream runs the pipeline and forwards the completion as it is
// produced. Blocked queries emit the canned rejection as one JSON chunk.
// Without a streaming-capable provider the normalized result is emitted as
// a single chunk.
func (p *Pipeline) AnalyzeStream(ctx context.Context, q model.RawQuery, emit func(chunk string) error) error {
	start := time.Now()
	mode := model.ParseMode(string(q.Mode))

	if p.blocked(q.Text) {
		p.metrics.Analysis(string(mode), "blocked", time.Since(start).Seconds())
		return emitJSON(emit, security.Rejection())
	}

	in := p.Prepare(ctx, q)

	if p.provider == nil {
		result, outcome := p.runAttempts(ctx, in)
		p.metrics.Analysis(string(mode), outcome, time.Since(start).Seconds())
		return emitJSON(emit, result)
	}

	emitted := false
	err := llm.Stream(ctx, p.provider, p.completionRequest(in), func(chunk string) error {
		emitted = true
		return emit(chunk)
	})
	p.metrics.ProviderAttempt(p.provider.Name(), err == nil)

	if err != nil && !emitted {
		p.log(ctx).Warn("streaming completion failed", zap.String("provider", p.provider.Name()), zap.Error(err))
		p.metrics.Analysis(string(mode), "unavailable", time.Since(start).Seconds())
		return emitJSON(emit, unavailable(in.Evidence.Sources()))
	}
	if err != nil {
		return fmt.Errorf("stream completion: %w", err)
	}

	p.metrics.Analysis(string(mode), p.provider.Name(), time.Since(start).Seconds())
	return nil
}

// ExtractKeywords returns search keywords for text, refusing injection attempts
func (p *Pipeline) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	if p.blocked(text) {
		return nil, ErrBlocked
	}
	kws := p.keywords.Extract(ctx, security.Sanitize(text))
	if kws == nil {
		kws = []string{}
	}
	return kws, nil
}

// Prepare sanitizes the query, gathers evidence when the mode needs it and
// assembles the system prompt. Callers must have classified q already.
func (p *Pipeline) Prepare(ctx context.Context, q model.RawQuery) *Prepared {
	in := &Prepared{
		Query: q,
		Mode:  model.ParseMode(string(q.Mode)),
		Text:  security.Sanitize(q.Text),
	}

	if in.Mode == model.ModeFakeDetection && in.Text != "" {
		in.Keywords = p.keywords.Extract(ctx, in.Text)
		p.log(ctx).Debug("extracted keywords", zap.Strings("keywords", in.Keywords))
		in.Evidence = p.gather(ctx, in.Keywords, q.URLs)
	}

	in.System = BuildSystemPrompt(in.Mode, in.Evidence)
	return in
}

// gather fetches news, wiki and submitted documents concurrently
func (p *Pipeline) gather(ctx context.Context, kws []string, urls []string) evidence.Bundle {
	var (
		newsSets  [][]model.EvidenceDocument
		wiki      []model.EvidenceDocument
		submitted []model.EvidenceDocument
	)

	var g errgroup.Group
	if len(kws) > 0 {
		workers := p.config.Concurrency.FetchWorkers
		g.Go(func() error {
			newsSets = worker.FanOut(ctx, workers, kws, p.news.SearchAndFetch)
			return nil
		})
		g.Go(func() error {
			wiki = p.wiki.Search(ctx, kws)
			return nil
		})
	}
	if len(urls) > 0 {
		g.Go(func() error {
			submitted = p.submitted.Fetch(ctx, urls)
			return nil
		})
	}
	_ = g.Wait()

	bundle := evidence.Merge(newsSets, wiki, submitted, p.config.Retrieval.MaxDocuments)
	p.log(ctx).Debug("gathered evidence",
		zap.Int("news", len(bundle.News)),
		zap.Int("wiki", len(bundle.Wiki)),
		zap.Int("submitted", len(bundle.Submitted)),
	)
	return bundle
}

// runAttempts tries each tier in order and normalizes the first reply
func (p *Pipeline) runAttempts(ctx context.Context, in *Prepared) (model.AnalysisResult, string) {
	gathered := in.Evidence.Sources()

	for _, attempt := range p.attempts {
		reply, err := p.try(ctx, attempt, in)
		p.metrics.ProviderAttempt(attempt.Name, err == nil)
		if err != nil {
			p.log(ctx).Warn("analysis attempt failed", zap.String("attempt", attempt.Name), zap.Error(err))
			continue
		}
		return Normalize(reply, gathered), attempt.Name
	}

	return unavailable(gathered), "unavailable"
}

// try runs one attempt; errors and panics both count as failure
func (p *Pipeline) try(ctx context.Context, attempt Attempt, in *Prepared) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", attempt.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return attempt.Run(ctx, in)
}

func (p *Pipeline) complete(ctx context.Context, in *Prepared) (string, error) {
	resp, err := p.provider.Complete(ctx, p.completionRequest(in))
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Text == "" {
		return "", fmt.Errorf("%s: empty completion", p.provider.Name())
	}
	return resp.Text, nil
}

func (p *Pipeline) completionRequest(in *Prepared) llm.CompletionRequest {
	return llm.CompletionRequest{
		System:    in.System,
		Prompt:    in.Text,
		MaxTokens: p.config.LLM.MaxTokens,
	}
}

func (p *Pipeline) blocked(text string) bool {
	if p.filter.Classify(text).Blocked {
		p.metrics.InjectionBlocked()
		return true
	}
	return false
}

func (p *Pipeline) log(ctx context.Context) *zap.Logger {
	return telemetry.LoggerFrom(ctx, p.logger)
}

func unavailable(gathered []model.Source) model.AnalysisResult {
	if gathered == nil {
		gathered = []model.Source{}
	}
	return model.AnalysisResult{
		Verdict: model.VerdictControversial,
		Score:   0,
		Summary: UnavailableSummary,
		Sources: gathered,
	}
}

func emitJSON(emit func(string) error, result model.AnalysisResult) error {
	encoded, err := json.Marshal(result.WithSources())
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return emit(string(encoded))
}
