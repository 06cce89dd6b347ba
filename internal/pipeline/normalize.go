package pipeline

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
)

// DefaultScore is used when a reply carries no usable score
const DefaultScore = 50

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Normalize turns a backend or completion reply into an AnalysisResult.
// Both the chat shape (result, trust_score, result_string, verified_sources)
// and the verdict shape (verdict, confidence, summary, sources) are read.
// Replies that are not JSON objects become a controversial result wrapping
// the raw text. Missing sources fall back to gathered.
func Normalize(raw string, gathered []model.Source) model.AnalysisResult {
	if gathered == nil {
		gathered = []model.Source{}
	}

	obj, err := parseObject(raw)
	if err != nil {
		return model.AnalysisResult{
			Verdict: model.VerdictControversial,
			Score:   DefaultScore,
			Summary: strings.TrimSpace(raw),
			Sources: gathered,
		}
	}

	result := model.AnalysisResult{
		Verdict: verdictOf(firstField(obj, "result", "verdict")),
		Score:   DefaultScore,
		Summary: strings.TrimSpace(raw),
		Sources: gathered,
	}

	if score, ok := scoreOf(firstField(obj, "trust_score", "confidence")); ok {
		result.Score = model.ClampScore(score)
	}
	if summary, ok := firstField(obj, "result_string", "summary").(string); ok && strings.TrimSpace(summary) != "" {
		result.Summary = summary
	}
	if sources := sourcesOf(firstField(obj, "verified_sources", "sources")); len(sources) > 0 {
		result.Sources = sources
	}

	return result
}

// parseObject strips code fences and decodes a JSON object, falling back to
// the outermost {...} span of the reply
func parseObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
			text = matches[1]
		}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil || obj == nil {
		return nil, errors.New("invalid JSON object in reply")
	}
	return obj, nil
}

func firstField(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func verdictOf(v any) model.Verdict {
	switch val := v.(type) {
	case bool:
		if val {
			return model.VerdictTrue
		}
		return model.VerdictFalse
	case string:
		return model.ParseVerdict(val)
	default:
		return model.VerdictControversial
	}
}

func scoreOf(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(math.Round(val)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return int(math.Round(f)), true
	default:
		return 0, false
	}
}

// sourcesOf accepts a list of URL strings or a list of source objects
func sourcesOf(v any) []model.Source {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	sources := make([]model.Source, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			if val != "" {
				sources = append(sources, model.Source{URL: val})
			}
		case map[string]any:
			s := model.Source{
				Title:       stringField(val, "title"),
				Description: stringField(val, "desc"),
				URL:         stringField(val, "url"),
				Kind:        stringField(val, "type"),
			}
			if s.URL != "" || s.Title != "" {
				sources = append(sources, s)
			}
		}
	}
	return sources
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
