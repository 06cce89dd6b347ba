package model

import "strings"

// Verdict is the closed set of analysis outcomes
type Verdict string

const (
	VerdictTrue          Verdict = "true"
	VerdictFalse         Verdict = "false"
	VerdictControversial Verdict = "controversial"
)

// ParseVerdict maps a model-produced value onto a Verdict.
// Anything other than the two definite literals is controversial.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return VerdictTrue
	case "false":
		return VerdictFalse
	default:
		return VerdictControversial
	}
}

// Source is a cited reference attached to a result
type Source struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	URL         string `json:"url"`
	Kind        string `json:"type"` // news | data
}

// AnalysisResult is the only externally visible output of the pipeline
type AnalysisResult struct {
	Verdict Verdict  `json:"verdict"`
	Score   int      `json:"confidence"` // 0-100
	Summary string   `json:"summary"`
	Sources []Source `json:"sources"`
}

// ChatResponse is the wire shape shared with the analysis backend
type ChatResponse struct {
	Result          string   `json:"result"`
	TrustScore      int      `json:"trust_score"`
	ResultString    string   `json:"result_string"`
	VerifiedSources []string `json:"verified_sources"`
}

// ToChatResponse encodes the result in the backend-compatible shape
func (r AnalysisResult) ToChatResponse() ChatResponse {
	urls := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return ChatResponse{
		Result:          string(r.Verdict),
		TrustScore:      r.Score,
		ResultString:    r.Summary,
		VerifiedSources: urls,
	}
}

// WithSources returns a copy with a non-nil source list
func (r AnalysisResult) WithSources() AnalysisResult {
	if r.Sources == nil {
		r.Sources = []Source{}
	}
	return r
}

// ClampScore bounds a score to 0-100
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
