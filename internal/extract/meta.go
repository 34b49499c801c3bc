package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	rssXMLType  = "rss+xml"
	atomXMLType = "atom+xml"
)

// Meta is page-level metadata available without rendering post lists.
type Meta struct {
	Title       string
	Description string // og:description
}

// Text prefers the Open Graph description over the title.
func (m Meta) Text() string {
	if m.Description != "" {
		return m.Description
	}
	return m.Title
}

// PageMeta reads the <title> and og:description of the document.
func PageMeta(doc *goquery.Document) Meta {
	desc, _ := doc.Find(`meta[property="og:description"]`).First().Attr("content")
	return Meta{
		Title:       collapse(doc.Find("title").First().Text()),
		Description: collapse(desc),
	}
}

// FeedLinks returns the absolute URLs of RSS/Atom autodiscovery links in
// document order.
func FeedLinks(doc *goquery.Document, baseURL string) []string {
	base, _ := url.Parse(baseURL)

	var links []string
	doc.Find("link[type]").Each(func(_ int, s *goquery.Selection) {
		linkType := strings.ToLower(s.AttrOr("type", ""))
		if !strings.Contains(linkType, rssXMLType) && !strings.Contains(linkType, atomXMLType) {
			return
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if abs, ok := resolveHref(base, href); ok {
			links = append(links, abs)
		}
	})
	return links
}
