package model

import "time"

// Config holds all runtime configuration
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Backend      BackendConfig     `yaml:"backend" mapstructure:"backend"`
	Retrieval    RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	Keywords     KeywordsConfig    `yaml:"keywords" mapstructure:"keywords"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Verbose      bool              `yaml:"verbose" mapstructure:"verbose"`
}

// HTTPConfig controls outbound fetching
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-request timeout
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language" mapstructure:"accept_language"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LLMConfig selects the completion provider used for keywords and fallback analysis
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// BackendConfig points at the optional primary analysis service
type BackendConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"` // Empty disables the primary tier
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RetrievalConfig holds source endpoints and the evidence bounds
type RetrievalConfig struct {
	NewsSearchURL    string `yaml:"news_search_url" mapstructure:"news_search_url"`
	WikipediaBaseURL string `yaml:"wikipedia_base_url" mapstructure:"wikipedia_base_url"`
	NamuwikiBaseURL  string `yaml:"namuwiki_base_url" mapstructure:"namuwiki_base_url"`

	MaxKeywords       int `yaml:"max_keywords" mapstructure:"max_keywords"`
	MaxDocuments      int `yaml:"max_documents" mapstructure:"max_documents"`
	MaxCandidateLinks int `yaml:"max_candidate_links" mapstructure:"max_candidate_links"`
	NewsBodyLimit     int `yaml:"news_body_limit" mapstructure:"news_body_limit"`
	WikiBodyLimit     int `yaml:"wiki_body_limit" mapstructure:"wiki_body_limit"`
	MinNewsBody       int `yaml:"min_news_body" mapstructure:"min_news_body"` // Bodies must be longer than this
	MinWikiBody       int `yaml:"min_wiki_body" mapstructure:"min_wiki_body"` // Bodies shorter than this are dropped
	MaxWikiKeywords   int `yaml:"max_wiki_keywords" mapstructure:"max_wiki_keywords"`
	WikiSearchLimit   int `yaml:"wiki_search_limit" mapstructure:"wiki_search_limit"`
	WikiSummaryPages  int `yaml:"wiki_summary_pages" mapstructure:"wiki_summary_pages"`
	MaxSubmittedURLs  int `yaml:"max_submitted_urls" mapstructure:"max_submitted_urls"`
	MaxInputLength    int `yaml:"max_input_length" mapstructure:"max_input_length"`
}

// KeywordsConfig bounds the keyword extraction step
type KeywordsConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ConcurrencyConfig controls fan-out widths
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// RateLimitConfig controls per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Listen          string        `yaml:"listen" mapstructure:"listen"`
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" mapstructure:"analysis_timeout"` // Wall-clock ceiling per request
	AllowOrigins    []string      `yaml:"allow_origins" mapstructure:"allow_origins"`
}

// BrowserUserAgent is sent to news and wiki sources, which reject unknown agents
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the tuned defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:        10 * time.Second,
			UserAgent:      BrowserUserAgent,
			AcceptLanguage: "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
			MaxBodyBytes:   5_000_000,
			RespectRobots:  false,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Backend: BackendConfig{
			URL:     "",
			Timeout: 30 * time.Second,
		},
		Retrieval: RetrievalConfig{
			NewsSearchURL:     "https://search.naver.com/search.naver",
			WikipediaBaseURL:  "https://ko.wikipedia.org",
			NamuwikiBaseURL:   "https://namu.wiki",
			MaxKeywords:       3,
			MaxDocuments:      3,
			MaxCandidateLinks: 5,
			NewsBodyLimit:     2000,
			WikiBodyLimit:     500,
			MinNewsBody:       50,
			MinWikiBody:       50,
			MaxWikiKeywords:   2,
			WikiSearchLimit:   3,
			WikiSummaryPages:  2,
			MaxSubmittedURLs:  3,
			MaxInputLength:    5000,
		},
		Keywords: KeywordsConfig{
			Timeout: 10 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 8,
			BatchWorkers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Server: ServerConfig{
			Listen:          ":8080",
			AnalysisTimeout: 60 * time.Second,
			AllowOrigins:    []string{"*"},
		},
	}
}
