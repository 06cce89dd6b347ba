package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanText returns the visible text of a selection: script and style
// subtrees are skipped, element boundaries become spaces, entities are
// decoded by the parser, and whitespace runs collapse to one space.
func CleanText(sel *goquery.Selection) string {
	var buf strings.Builder
	for _, n := range sel.Nodes {
		writeText(&buf, n)
	}
	return CollapseWhitespace(buf.String())
}

func writeText(buf *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(buf, c)
		if c.Type == html.ElementNode {
			buf.WriteByte(' ')
		}
	}
}

// CollapseWhitespace replaces every whitespace run with a single space and trims
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most limit runes and appends suffix when it was cut.
// A non-positive limit leaves s unchanged.
func TruncateRunes(s string, limit int, suffix string) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + suffix
}
