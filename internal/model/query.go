package model

import "strings"

// Mode selects the analysis persona and whether evidence is gathered
type Mode string

const (
	ModeFakeDetection Mode = "fake_detection" // Fact-check against retrieved evidence
	ModeCrowdAnalysis Mode = "crowd_analysis" // Public-opinion / crowd psychology analysis
)

// ParseMode maps any accepted wire spelling onto a Mode.
// Unknown or empty values fall back to fake detection.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crowd_analysis", "crowd-psychology", "crowd":
		return ModeCrowdAnalysis
	default:
		return ModeFakeDetection
	}
}

// PromptKey returns the key used for the role instruction of this mode
func (m Mode) PromptKey() string {
	if m == ModeCrowdAnalysis {
		return "crowd-psychology"
	}
	return "fake-news"
}

// RawQuery is a user submission as received. It is never mutated.
type RawQuery struct {
	Text string   `json:"content"`
	Mode Mode     `json:"analysis_type"`
	URLs []string `json:"url,omitempty"` // Optional user-supplied reference URLs
}

// SecurityVerdict is the outcome of classifying a raw query
type SecurityVerdict struct {
	Blocked bool   // True when an injection rule matched
	Rule    string // Matched rule (for logging only)
	Excerpt string // Truncated input (for logging only)
}
