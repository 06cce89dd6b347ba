package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule pulls one field value out of a parsed page. An empty result means
// the rule did not apply and the next rule is tried.
type Rule func(doc *goquery.Document) string

// Text returns the collapsed own text of the first element matching selector
func Text(selector string) Rule {
	return func(doc *goquery.Document) string {
		return CollapseWhitespace(doc.Find(selector).First().Text())
	}
}

// Attr returns an attribute of the first element matching selector
func Attr(selector, attr string) Rule {
	return func(doc *goquery.Document) string {
		val, _ := doc.Find(selector).First().Attr(attr)
		return strings.TrimSpace(val)
	}
}

// Body returns the cleaned visible text of the first element matching selector
func Body(selector string) Rule {
	return func(doc *goquery.Document) string {
		return CleanText(doc.Find(selector).First())
	}
}

// FirstOf applies rules in order and returns the first non-empty value, or def
func FirstOf(doc *goquery.Document, rules []Rule, def string) string {
	for _, rule := range rules {
		if val := rule(doc); val != "" {
			return val
		}
	}
	return def
}

// Document describes how to read one page shape: ordered rules per field
type Document struct {
	Title         []Rule
	Source        []Rule
	Body          []Rule
	DefaultTitle  string
	DefaultSource string
}

// Fields are the values read from a page
type Fields struct {
	Title  string
	Source string
	Body   string
}

// Parse parses HTML into a queryable document
func Parse(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Extract reads every field from doc using the configured rule chains
func (d *Document) Extract(doc *goquery.Document) Fields {
	return Fields{
		Title:  FirstOf(doc, d.Title, d.DefaultTitle),
		Source: FirstOf(doc, d.Source, d.DefaultSource),
		Body:   FirstOf(doc, d.Body, ""),
	}
}
