package evidence

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
)

// NoNewsSentinel stands in for the news context when no article was found
const NoNewsSentinel = "관련 뉴스를 찾지 못했습니다."

// FormatNews renders news documents as numbered prompt blocks
func FormatNews(docs []model.EvidenceDocument) string {
	if len(docs) == 0 {
		return NoNewsSentinel
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[기사 %d]\n제목: %s\n출처: %s\nURL: %s\n내용: %s",
			i+1, doc.Title, doc.Source, doc.URL, doc.Body)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// FormatWiki renders encyclopedia documents. No documents render as "".
func FormatWiki(docs []model.EvidenceDocument) string {
	if len(docs) == 0 {
		return ""
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[위키 %d] %s (%s)\n%s\n출처: %s",
			i+1, doc.Title, doc.Kind.Label(), doc.Body, doc.URL)
	}
	return strings.Join(blocks, "\n\n")
}

// FormatSubmitted renders documents from user-supplied URLs. No documents render as "".
func FormatSubmitted(docs []model.EvidenceDocument) string {
	if len(docs) == 0 {
		return ""
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = fmt.Sprintf("[제출 자료 %d]\n제목: %s\n출처: %s\nURL: %s\n내용: %s",
			i+1, doc.Title, doc.Source, doc.URL, doc.Body)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
