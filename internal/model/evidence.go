package model

// EvidenceDocument is a single extracted unit of third-party content
type EvidenceDocument struct {
	Kind   EvidenceKind `json:"kind"`
	Title  string       `json:"title"`
	URL    string       `json:"url"`    // Identity key, never empty
	Body   string       `json:"body"`   // Bounded plain text
	Source string       `json:"source"` // Publisher or origin label
}

// EvidenceKind classifies where a document came from
type EvidenceKind string

const (
	EvidenceKindNews      EvidenceKind = "news"
	EvidenceKindWikipedia EvidenceKind = "wikipedia"
	EvidenceKindNamuwiki  EvidenceKind = "namuwiki"
	EvidenceKindSubmitted EvidenceKind = "submitted" // URL supplied with the query
)

// Label returns the Korean display name used in prompt context
func (k EvidenceKind) Label() string {
	switch k {
	case EvidenceKindWikipedia:
		return "위키피디아"
	case EvidenceKindNamuwiki:
		return "나무위키"
	case EvidenceKindNews:
		return "뉴스"
	default:
		return "제출 자료"
	}
}

// SourceType maps the document kind onto the verdict payload "type" field
func (k EvidenceKind) SourceType() string {
	if k == EvidenceKindNews {
		return "news"
	}
	return "data"
}

// ToSource converts a document into a cited source entry
func (d EvidenceDocument) ToSource() Source {
	desc := d.Source
	if desc == "" {
		desc = d.Kind.Label()
	}
	return Source{
		Title:       d.Title,
		Description: desc,
		URL:         d.URL,
		Kind:        d.Kind.SourceType(),
	}
}
