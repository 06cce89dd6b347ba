package extract

import (
	"testing"
	"unicode/utf8"
)

func TestCleanText(t *testing.T) {
	doc, err := Parse(`
	<html><body>
		<div id="c">
			<script>var x = 1;</script>
			<style>.a { color: red }</style>
			<p>첫 문단&nbsp;입니다.</p><p>둘째&amp;셋째</p>
		</div>
	</body></html>
	`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got := CleanText(doc.Find("#c"))
	want := "첫 문단 입니다. 둘째&셋째"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCleanText_Empty(t *testing.T) {
	doc, _ := Parse(`<html><body></body></html>`)
	if got := CleanText(doc.Find("#missing")); got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		limit  int
		suffix string
		want   string
	}{
		{"under limit", "가나다", 5, "...", "가나다"},
		{"at limit", "가나다", 3, "...", "가나다"},
		{"over limit", "가나다라마", 3, "...", "가나다..."},
		{"no suffix", "가나다라마", 2, "", "가나"},
		{"no limit", "가나다", 0, "...", "가나다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.limit, tt.suffix); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruncateRunes_CountsRunes(t *testing.T) {
	got := TruncateRunes("한국어텍스트", 3, "")
	if utf8.RuneCountInString(got) != 3 {
		t.Errorf("Expected 3 runes, got %d", utf8.RuneCountInString(got))
	}
}

func TestDocument_Extract(t *testing.T) {
	d := &Document{
		Title:         []Rule{Text("h2.headline"), Text("title")},
		Source:        []Rule{Attr("a.logo", "title"), Attr(`meta[property="og:site_name"]`, "content")},
		Body:          []Rule{Body("article#main"), Body("body")},
		DefaultTitle:  "제목 없음",
		DefaultSource: "알 수 없음",
	}

	doc, err := Parse(`
	<html><head>
		<title>페이지 제목</title>
		<meta property="og:site_name" content="연합뉴스">
	</head><body><p>본문</p></body></html>
	`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	fields := d.Extract(doc)
	if fields.Title != "페이지 제목" {
		t.Errorf("Expected title fallback to <title>, got %q", fields.Title)
	}
	if fields.Source != "연합뉴스" {
		t.Errorf("Expected og:site_name source, got %q", fields.Source)
	}
	if fields.Body != "본문" {
		t.Errorf("Expected body fallback, got %q", fields.Body)
	}
}

func TestDocument_Defaults(t *testing.T) {
	d := &Document{
		Title:         []Rule{Text("h1")},
		Source:        []Rule{Attr("a.logo", "title")},
		DefaultTitle:  "제목 없음",
		DefaultSource: "알 수 없음",
	}

	doc, _ := Parse(`<html><body><p>x</p></body></html>`)
	fields := d.Extract(doc)

	if fields.Title != "제목 없음" {
		t.Errorf("Expected default title, got %q", fields.Title)
	}
	if fields.Source != "알 수 없음" {
		t.Errorf("Expected default source, got %q", fields.Source)
	}
	if fields.Body != "" {
		t.Errorf("Expected empty body without rules, got %q", fields.Body)
	}
}
