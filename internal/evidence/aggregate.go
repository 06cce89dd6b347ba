package evidence

import "github.com/ppiankov/factlens/internal/model"

// DefaultMaxNews caps the merged news list when no cap is configured
const DefaultMaxNews = 3

// Bundle is the evidence gathered for one query
type Bundle struct {
	News      []model.EvidenceDocument
	Wiki      []model.EvidenceDocument
	Submitted []model.EvidenceDocument
}

// Merge flattens per-keyword news sets in keyword order, drops repeated
// URLs and keeps the first maxNews. Wiki and submitted documents are kept
// as their own lists.
func Merge(newsSets [][]model.EvidenceDocument, wiki []model.EvidenceDocument, submitted []model.EvidenceDocument, maxNews int) Bundle {
	if maxNews <= 0 {
		maxNews = DefaultMaxNews
	}

	var news []model.EvidenceDocument
	seen := make(map[string]bool)

	for _, set := range newsSets {
		for _, doc := range set {
			if len(news) == maxNews {
				break
			}
			if doc.URL == "" || seen[doc.URL] {
				continue
			}
			seen[doc.URL] = true
			news = append(news, doc)
		}
	}

	return Bundle{News: news, Wiki: wiki, Submitted: submitted}
}

// Empty reports whether no evidence was gathered
func (b Bundle) Empty() bool {
	return len(b.News) == 0 && len(b.Wiki) == 0 && len(b.Submitted) == 0
}

// Documents returns every document: news, then wiki, then submitted
func (b Bundle) Documents() []model.EvidenceDocument {
	docs := make([]model.EvidenceDocument, 0, len(b.News)+len(b.Wiki)+len(b.Submitted))
	docs = append(docs, b.News...)
	docs = append(docs, b.Wiki...)
	docs = append(docs, b.Submitted...)
	return docs
}

// Sources lists the cited sources of all documents, unique by URL
func (b Bundle) Sources() []model.Source {
	sources := make([]model.Source, 0)
	seen := make(map[string]bool)

	for _, doc := range b.Documents() {
		if doc.URL == "" || seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		sources = append(sources, doc.ToSource())
	}
	return sources
}

// URLs returns the document URLs in Sources order
func (b Bundle) URLs() []string {
	var urls []string
	for _, s := range b.Sources() {
		urls = append(urls, s.URL)
	}
	return urls
}
