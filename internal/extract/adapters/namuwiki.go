package adapters

import (
	"strings"

	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/model"
)

// Pages containing any of these are treated as missing documents
var namuwikiMissingMarkers = []string{"문서가 존재하지 않습니다", "404"}

// NamuwikiAdapter reads namu.wiki document pages
type NamuwikiAdapter struct {
	BaseAdapter
}

// NewNamuwikiAdapter creates a new namu.wiki adapter
func NewNamuwikiAdapter(bodyLimit int) *NamuwikiAdapter {
	return &NamuwikiAdapter{BaseAdapter: BaseAdapter{BodyLimit: bodyLimit}}
}

// Name returns the adapter name
func (a *NamuwikiAdapter) Name() string {
	return "namuwiki"
}

// CanHandle checks if this is a namu.wiki URL
func (a *NamuwikiAdapter) CanHandle(rawURL string) bool {
	return hostMatches(rawURL, "namu.wiki")
}

// Extract reads the first <article> of the page
func (a *NamuwikiAdapter) Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error) {
	for _, marker := range namuwikiMissingMarkers {
		if strings.Contains(htmlContent, marker) {
			return nil, ErrNotFound
		}
	}

	doc, err := extract.Parse(htmlContent)
	if err != nil {
		return nil, err
	}

	article := doc.Find("article").First()
	if article.Length() == 0 {
		return nil, ErrNotFound
	}

	title := extract.CollapseWhitespace(doc.Find("title").First().Text())
	title = strings.TrimSuffix(title, " - 나무위키")

	return &model.EvidenceDocument{
		Kind:   model.EvidenceKindNamuwiki,
		Title:  title,
		URL:    rawURL,
		Body:   a.Truncate(extract.CleanText(article)),
		Source: model.EvidenceKindNamuwiki.Label(),
	}, nil
}
