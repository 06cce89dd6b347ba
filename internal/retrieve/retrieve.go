package retrieve

import (
	"context"
	"unicode/utf8"

	"github.com/ppiankov/factlens/internal/fetch"
	"github.com/ppiankov/factlens/internal/model"
)

// Fetcher is the HTTP capability retrievers depend on
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
	FetchJSON(ctx context.Context, rawURL string, v any) error
}

// Metric labels for source fetches
const (
	sourceNewsSearch = "news_search"
	sourceNewsPage   = "news_article"
	sourceWikipedia  = "wikipedia"
	sourceNamuwiki   = "namuwiki"
	sourceSubmitted  = "submitted"
)

// compact drops nil slots, keeping order
func compact(docs []*model.EvidenceDocument) []model.EvidenceDocument {
	out := make([]model.EvidenceDocument, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			out = append(out, *doc)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
