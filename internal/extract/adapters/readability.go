package adapters

import (
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/model"
)

// ReadabilityAdapter reads arbitrary article pages with the readability algorithm
type ReadabilityAdapter struct {
	BaseAdapter
}

// NewReadabilityAdapter creates a new readability adapter
func NewReadabilityAdapter(bodyLimit int) *ReadabilityAdapter {
	return &ReadabilityAdapter{BaseAdapter: BaseAdapter{BodyLimit: bodyLimit, Ellipsis: "..."}}
}

// Name returns the adapter name
func (a *ReadabilityAdapter) Name() string {
	return "readability"
}

// CanHandle always returns true (fallback adapter)
func (a *ReadabilityAdapter) CanHandle(rawURL string) bool {
	return true
}

// Extract runs readability over the page
func (a *ReadabilityAdapter) Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(htmlContent), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = untitled
	}
	source := strings.TrimSpace(article.SiteName)
	if source == "" {
		source = pageURL.Hostname()
	}

	return &model.EvidenceDocument{
		Kind:   model.EvidenceKindSubmitted,
		Title:  title,
		URL:    rawURL,
		Body:   a.Truncate(extract.CollapseWhitespace(article.TextContent)),
		Source: source,
	}, nil
}
