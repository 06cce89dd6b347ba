package security

import (
	"regexp"
	"strings"

	"github.com/ppiankov/factlens/internal/model"
	"go.uber.org/zap"
)

// RejectionSummary is returned verbatim to blocked users
const RejectionSummary = "죄송합니다. 해당 요청은 처리할 수 없습니다. 저는 가짜 뉴스 탐지 및 군중심리 분석 전용 AI입니다. 뉴스나 정보의 진위 여부에 대해 질문해 주세요."

const logExcerptRunes = 100

// rule is a named injection pattern
type rule struct {
	name    string
	pattern *regexp.Regexp
}

// Rules are evaluated in order; the first hit wins.
var rules = []rule{
	// Instruction override (English)
	{"ignore-instructions", regexp.MustCompile(`(?i)ignore\s*(all\s*)?(previous|above|prior)\s*(instructions?|prompts?|rules?)`)},
	{"forget-instructions", regexp.MustCompile(`(?i)forget\s*(all\s*)?(previous|above|prior)\s*(instructions?|prompts?|rules?)`)},
	{"disregard-instructions", regexp.MustCompile(`(?i)disregard\s*(all\s*)?(previous|above|prior)\s*(instructions?|prompts?|rules?)`)},

	// Instruction override (Korean)
	{"ko-ignore-instructions", regexp.MustCompile(`(?i)(지금까지|이전|위의?)\s*(모든\s*)?(프롬프트|지시|명령|규칙).*?(잊|무시|따르지)`)},
	{"ko-discard-prompt", regexp.MustCompile(`(?i)(프롬프트|지시|명령).*?(잊어|무시해|버려)`)},

	// Role change
	{"role-you-are-now", regexp.MustCompile(`(?i)you\s*are\s*now\s*(a|an|acting\s*as)`)},
	{"role-pretend", regexp.MustCompile(`(?i)pretend\s*(to\s*be|you\s*are)`)},
	{"role-act-as", regexp.MustCompile(`(?i)act\s*as\s*(if\s*you\s*are|a|an)`)},
	{"role-roleplay", regexp.MustCompile(`(?i)roleplay\s*as`)},
	{"ko-role-change", regexp.MustCompile(`(?i)(너는?|넌)\s*이제\s*(부터\s*)?(다른|새로운)`)},

	// Jailbreak keywords
	{"jailbreak", regexp.MustCompile(`(?i)jailbreak`)},
	{"dan-mode", regexp.MustCompile(`(?i)DAN\s*mode`)},
	{"developer-mode", regexp.MustCompile(`(?i)developer\s*mode`)},
	{"bypass-safety", regexp.MustCompile(`(?i)bypass\s*(safety|filter|restriction)`)},

	// System prompt extraction
	{"show-prompt", regexp.MustCompile(`(?i)show\s*(me\s*)?(your\s*)?(system\s*)?prompt`)},
	{"reveal-instructions", regexp.MustCompile(`(?i)reveal\s*(your\s*)?(system\s*)?instructions?`)},
	{"ask-prompt", regexp.MustCompile(`(?i)what\s*(are|is)\s*your\s*(system\s*)?(prompt|instructions?)`)},
	{"ko-show-prompt", regexp.MustCompile(`(?i)(시스템|원래)\s*프롬프트.*?(알려|보여|출력)`)},

	// Raw control tokens
	{"token-inst", regexp.MustCompile(`(?i)\[INST\]`)},
	{"token-system", regexp.MustCompile(`(?i)\[SYSTEM\]`)},
	{"token-sys", regexp.MustCompile(`(?i)<<SYS>>`)},
	{"token-im-start", regexp.MustCompile(`(?i)<\|im_start\|>`)},
}

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	controlTokenRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\[INST\]`),
		regexp.MustCompile(`(?i)\[SYSTEM\]`),
		regexp.MustCompile(`(?i)<<SYS>>`),
		regexp.MustCompile(`(?i)<\|im_start\|>`),
		regexp.MustCompile(`(?i)<\|im_end\|>`),
	}
)

// Filter classifies user text against the injection rule set
type Filter struct {
	logger *zap.Logger
}

// NewFilter creates a filter. A nil logger disables logging.
func NewFilter(logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{logger: logger}
}

// Classify checks the original text and a lower-cased, whitespace-collapsed
// copy; a hit on either blocks the query.
func (f *Filter) Classify(text string) model.SecurityVerdict {
	normalized := whitespaceRe.ReplaceAllString(strings.ToLower(text), " ")

	for _, r := range rules {
		if r.pattern.MatchString(normalized) || r.pattern.MatchString(text) {
			excerpt := truncateRunes(text, logExcerptRunes)
			f.logger.Warn("prompt injection attempt blocked",
				zap.String("rule", r.name),
				zap.String("input", excerpt),
			)
			return model.SecurityVerdict{Blocked: true, Rule: r.name, Excerpt: excerpt}
		}
	}

	return model.SecurityVerdict{}
}

// Sanitize removes raw control tokens and trims the result
func Sanitize(text string) string {
	for _, re := range controlTokenRes {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// Rejection is the canned response for blocked queries
func Rejection() model.AnalysisResult {
	return model.AnalysisResult{
		Verdict: model.VerdictControversial,
		Score:   0,
		Summary: RejectionSummary,
		Sources: []model.Source{},
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
