package keywords

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/model"
	"go.uber.org/zap"
)

const (
	defaultMaxKeywords = 3
	maxKeywordRunes    = 19
	fallbackKeywords   = 2
	minFallbackRunes   = 2
)

const promptTemplate = `다음 텍스트에서 뉴스 검색에 사용할 핵심 키워드를 1-3개 추출하세요.
키워드는 명사 위주로, 검색에 효과적인 단어를 선택하세요.
응답은 키워드만 쉼표로 구분해서 출력하세요. 다른 설명은 하지 마세요.

텍스트: "%s"

키워드:`

// Extractor derives search keywords from user text
type Extractor struct {
	provider    llm.Provider // nil disables the completion path
	timeout     time.Duration
	maxKeywords int
	logger      *zap.Logger
}

// NewExtractor creates a keyword extractor returning at most maxKeywords
// terms. A non-positive maxKeywords uses the default of three.
func NewExtractor(provider llm.Provider, cfg model.KeywordsConfig, maxKeywords int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}
	return &Extractor{
		provider:    provider,
		timeout:     cfg.Timeout,
		maxKeywords: maxKeywords,
		logger:      logger,
	}
}

// Extract returns up to maxKeywords keywords. It never fails: any completion
// problem falls back to the local heuristic.
func (e *Extractor) Extract(ctx context.Context, text string) []string {
	if e.provider == nil {
		return e.fallback(text)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      BuildPrompt(text),
		MaxTokens:   50,
		Temperature: 0.1,
	})
	if err != nil {
		e.logger.Warn("keyword extraction failed, using fallback",
			zap.String("provider", e.provider.Name()),
			zap.Error(err),
		)
		return e.fallback(text)
	}

	keywords := Parse(resp.Text, e.maxKeywords)
	if len(keywords) == 0 {
		e.logger.Debug("completion produced no usable keywords", zap.String("reply", resp.Text))
		return e.fallback(text)
	}
	return keywords
}

// fallback applies the local heuristic under the configured cap
func (e *Extractor) fallback(text string) []string {
	keywords := Fallback(text)
	if len(keywords) > e.maxKeywords {
		keywords = keywords[:e.maxKeywords]
	}
	return keywords
}

// BuildPrompt embeds text verbatim in the extraction instruction
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Parse splits a comma-separated reply into at most limit keywords,
// dropping empty tokens and tokens of 20 runes or more.
func Parse(reply string, limit int) []string {
	if limit <= 0 {
		limit = defaultMaxKeywords
	}
	var keywords []string
	for _, token := range strings.Split(reply, ",") {
		token = strings.TrimSpace(token)
		n := utf8.RuneCountInString(token)
		if n == 0 || n > maxKeywordRunes {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == limit {
			break
		}
	}
	return keywords
}

// Fallback returns the first two whitespace tokens of at least two runes
func Fallback(text string) []string {
	var keywords []string
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) < minFallbackRunes {
			continue
		}
		keywords = append(keywords, token)
		if len(keywords) == fallbackKeywords {
			break
		}
	}
	return keywords
}
