// Package extract holds the HTML heuristics used to find the latest post on a
// page. Everything here works on an already parsed document and does no I/O.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MaxContextLen caps container text used when the anchor text is too thin.
	MaxContextLen = 1000

	firstPassLinks   = 30
	secondPassLinks  = 20
	minPostTextLen   = 5
	minAnyLinkLen    = 10
	minAnchorTextLen = 20
)

const boilerplateSelector = "script, style, nav, footer, header"

// containerHints are tried in order after <article> and before <main>.
const containerHints = `.post, .blog-post, .entry, [class*="article"], ` +
	`[class*="blog"], [class*="post"], [class*="news"], ` +
	`.card, .item, [class*="card"], [class*="item"], ` +
	`section[class*="blog"], section[class*="post"], ` +
	`.content, #content, [role="main"]`

var whitespaceRe = regexp.MustCompile(`\s+`)

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// StripBoilerplate removes nodes that never hold post content.
func StripBoilerplate(doc *goquery.Document) {
	doc.Find(boilerplateSelector).Remove()
}

// Container returns the most specific content container of the document:
// the first <article>, else the first hinted block, else <main>, else <body>.
func Container(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find(containerHints).First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}
	return doc.Find("body").First()
}

// VisibleText returns the whitespace-collapsed text of s.
func VisibleText(s *goquery.Selection) string {
	return collapse(s.Text())
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// resolveHref turns href into an absolute URL against base. Hrefs that
// already carry an http(s) scheme are returned verbatim.
func resolveHref(base *url.URL, href string) (string, bool) {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href, true
	}
	if base == nil {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	return abs.String(), true
}

func withoutFragment(raw string) string {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[:i]
	}
	return raw
}
