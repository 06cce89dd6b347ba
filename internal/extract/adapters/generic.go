package adapters

import (
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/model"
)

const (
	untitled      = "제목 없음"
	unknownSource = "알 수 없음"
)

// newsDocument is the rule chain for Korean news article pages
var newsDocument = &extract.Document{
	Title: []extract.Rule{
		extract.Text(`h2[class*="media_end_head_headline"]`),
		extract.Text("title"),
		extract.Text("h1"),
	},
	Source: []extract.Rule{
		extract.Attr(`a[class*="media_end_head_top_logo"]`, "title"),
		extract.Attr(`meta[property="og:site_name"]`, "content"),
		extract.Text(`em[class*="media_end_linked_more_point"]`),
	},
	Body: []extract.Rule{
		extract.Body("article#dic_area"),
		extract.Body("div#articleBodyContents"),
		extract.Body(`div[class*="newsct_article"]`),
		extract.Body("article"),
		extract.Body(`div[class*="article"]`),
		extract.Body("body"),
	},
	DefaultTitle:  untitled,
	DefaultSource: unknownSource,
}

// NewsAdapter reads news article pages
type NewsAdapter struct {
	BaseAdapter
	name  string
	hosts []string // Empty accepts every URL
}

// NewNewsAdapter creates the catch-all news adapter
func NewNewsAdapter(bodyLimit int) *NewsAdapter {
	return &NewsAdapter{
		BaseAdapter: BaseAdapter{BodyLimit: bodyLimit, Ellipsis: "..."},
		name:        "news",
	}
}

// NewNaverNewsAdapter creates a news adapter restricted to Naver News hosts
func NewNaverNewsAdapter(bodyLimit int) *NewsAdapter {
	return &NewsAdapter{
		BaseAdapter: BaseAdapter{BodyLimit: bodyLimit, Ellipsis: "..."},
		name:        "naver-news",
		hosts:       []string{"news.naver.com"},
	}
}

// Name returns the adapter name
func (a *NewsAdapter) Name() string {
	return a.name
}

// CanHandle checks the host restriction, if any
func (a *NewsAdapter) CanHandle(rawURL string) bool {
	if len(a.hosts) == 0 {
		return true
	}
	return hostMatches(rawURL, a.hosts...)
}

// Extract reads title, publisher and body text
func (a *NewsAdapter) Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error) {
	doc, err := extract.Parse(htmlContent)
	if err != nil {
		return nil, err
	}

	fields := newsDocument.Extract(doc)
	return &model.EvidenceDocument{
		Kind:   model.EvidenceKindNews,
		Title:  fields.Title,
		URL:    rawURL,
		Body:   a.Truncate(fields.Body),
		Source: fields.Source,
	}, nil
}
