package adapters

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/model"
)

// WikipediaAdapter reads Wikipedia article pages
type WikipediaAdapter struct {
	BaseAdapter
	document *extract.Document
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter(bodyLimit int) *WikipediaAdapter {
	return &WikipediaAdapter{
		BaseAdapter: BaseAdapter{BodyLimit: bodyLimit},
		document: &extract.Document{
			Title: []extract.Rule{
				extract.Text("h1#firstHeading"),
				extract.Text("title"),
			},
			Body: []extract.Rule{
				leadSection,
				extract.Body("div#mw-content-text"),
			},
			DefaultTitle: untitled,
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string) bool {
	return hostMatches(rawURL, "wikipedia.org")
}

// Extract reads the title and the lead section
func (a *WikipediaAdapter) Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error) {
	doc, err := extract.Parse(htmlContent)
	if err != nil {
		return nil, err
	}

	fields := a.document.Extract(doc)
	title := strings.TrimSuffix(fields.Title, " - 위키백과, 우리 모두의 백과사전")

	return &model.EvidenceDocument{
		Kind:   model.EvidenceKindWikipedia,
		Title:  title,
		URL:    rawURL,
		Body:   a.Truncate(fields.Body),
		Source: model.EvidenceKindWikipedia.Label(),
	}, nil
}

// leadSection collects the paragraphs before the first section heading
func leadSection(doc *goquery.Document) string {
	var parts []string

	doc.Find("div.mw-parser-output").First().Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Is("h2") || s.HasClass("mw-heading") {
			return false
		}
		if s.Is("p") {
			s.Find("sup.reference").Remove()
			if text := extract.CleanText(s); text != "" {
				parts = append(parts, text)
			}
		}
		return true
	})

	return strings.Join(parts, " ")
}
