package adapters

import (
	"errors"
	"net/url"
	"strings"

	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/model"
)

// ErrNotFound is returned when a page exists but holds no document
var ErrNotFound = errors.New("document not found")

// Adapter defines the interface for source-specific extractors
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL
	CanHandle(rawURL string) bool

	// Extract reads one evidence document from the page HTML
	Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error)
}

// Registry manages source adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry for search-result articles. Every page a
// news search links to is read as a news article, whatever its host.
func NewRegistry(cfg model.RetrievalConfig) *Registry {
	return &Registry{
		adapters: make([]Adapter, 0),
		generic:  NewNewsAdapter(cfg.NewsBodyLimit),
	}
}

// NewSubmittedRegistry creates a registry for user-supplied URLs. Known news
// and wiki shapes keep their rules; anything else goes through readability.
func NewSubmittedRegistry(cfg model.RetrievalConfig) *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewNaverNewsAdapter(cfg.NewsBodyLimit))
	registry.Register(NewWikipediaAdapter(cfg.NewsBodyLimit))
	registry.Register(NewNamuwikiAdapter(cfg.NewsBodyLimit))

	registry.generic = NewReadabilityAdapter(cfg.NewsBodyLimit)

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL
func (r *Registry) FindAdapter(rawURL string) Adapter {
	// Try specific adapters first
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL) {
			return adapter
		}
	}

	// Fall back to generic adapter
	return r.generic
}

// Extract picks an adapter for rawURL and extracts the document
func (r *Registry) Extract(htmlContent string, rawURL string) (*model.EvidenceDocument, error) {
	return r.FindAdapter(rawURL).Extract(htmlContent, rawURL)
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct {
	BodyLimit int    // Rune cap for the body; 0 keeps it whole
	Ellipsis  string // Appended when the body was cut
}

// Truncate applies the body cap
func (b *BaseAdapter) Truncate(body string) string {
	return extract.TruncateRunes(body, b.BodyLimit, b.Ellipsis)
}

// hostMatches reports whether rawURL's host is one of hosts or a subdomain of one
func hostMatches(rawURL string, hosts ...string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
