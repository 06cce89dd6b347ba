package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// LinkPattern selects candidate article links from a search result page
type LinkPattern struct {
	Name    string
	Match   *regexp.Regexp
	Exclude []string // Substrings that disqualify a match
}

// NewsLinkPatterns are tried in order; the first pattern with any match wins.
var NewsLinkPatterns = []LinkPattern{
	{
		Name:  "naver-news",
		Match: regexp.MustCompile(`^https?://(n\.)?news\.naver\.com/.+`),
	},
	{
		Name:    "generic-news",
		Match:   regexp.MustCompile(`(?i)^https?://.*(news|article)`),
		Exclude: []string{"search.naver"},
	},
}

// NewsLinks returns at most max candidate article URLs from a result page,
// in first-seen order, using the first pattern that yields any link.
func NewsLinks(htmlContent string, max int) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	hrefs := collectHrefs(doc)
	for _, pattern := range NewsLinkPatterns {
		if links := pattern.filter(hrefs, max); len(links) > 0 {
			return links
		}
	}
	return nil
}

func (p LinkPattern) filter(hrefs []string, max int) []string {
	var links []string
	seen := make(map[string]bool)

	for _, href := range hrefs {
		if max > 0 && len(links) >= max {
			break
		}
		if seen[href] || !p.Match.MatchString(href) || p.excluded(href) {
			continue
		}
		seen[href] = true
		links = append(links, href)
	}
	return links
}

func (p LinkPattern) excluded(href string) bool {
	for _, ex := range p.Exclude {
		if strings.Contains(href, ex) {
			return true
		}
	}
	return false
}

// collectHrefs walks the tree and returns every absolute anchor href in document order
func collectHrefs(doc *html.Node) []string {
	var hrefs []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					if href := absoluteHref(attr.Val); href != "" {
						hrefs = append(hrefs, href)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return hrefs
}

// absoluteHref keeps only http(s) links; relative, anchor and script links are dropped
func absoluteHref(href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ""
	}
	return href
}
