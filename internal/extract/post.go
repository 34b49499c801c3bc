package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	sectionRe = regexp.MustCompile(`(?i)/(blog|post|article|news)/`)
	dateRe    = regexp.MustCompile(`/\d{4}/\d{2}/`)
	idRe      = regexp.MustCompile(`-\d+$`)
	slugRe    = regexp.MustCompile(`/[a-z0-9\-]+-[a-z0-9\-]+$`)
)

// Post is the candidate latest post found on a page.
type Post struct {
	URL  string // absolute link, empty when nothing qualified
	Text string // anchor text, or container text when the anchor is thin
}

// Found reports whether a candidate link was located.
func (p Post) Found() bool {
	return p.URL != ""
}

// LooksLikePost reports whether rawURL has the shape of a single blog post:
// a blog-ish section, a date segment, a numeric id suffix, or a hyphenated slug.
func LooksLikePost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.EscapedPath()
	if sectionRe.MatchString(path) || dateRe.MatchString(path) {
		return true
	}
	trimmed := strings.TrimSuffix(path, "/")
	return idRe.MatchString(trimmed) || slugRe.MatchString(trimmed)
}

type anchor struct {
	url  string
	text string
}

// LatestPost locates the most likely latest-post link inside the document's
// content container. Links pointing at baseURL or at previous are skipped.
// The document is expected to be stripped of boilerplate already.
func LatestPost(doc *goquery.Document, baseURL, previous string) Post {
	container := Container(doc)
	base, _ := url.Parse(baseURL)
	links := container.Find("a[href]")

	var post Post

	// First pass: post-shaped URLs with a little anchor text.
	for _, a := range anchors(links, firstPassLinks, base, baseURL, previous) {
		if LooksLikePost(a.url) && runeLen(a.text) > minPostTextLen {
			post = Post{URL: a.url, Text: a.text}
			break
		}
	}

	// Second pass: any link with meaningful anchor text.
	if !post.Found() {
		for _, a := range anchors(links, secondPassLinks, base, baseURL, previous) {
			if runeLen(a.text) > minAnyLinkLen {
				post = Post{URL: a.url, Text: a.text}
				break
			}
		}
	}

	if post.Found() && runeLen(post.Text) < minAnchorTextLen {
		post.Text = Truncate(VisibleText(container), MaxContextLen)
	}
	post.Text = Truncate(post.Text, MaxContextLen)
	return post
}

// anchors returns the qualifying links among the first limit anchors of links.
func anchors(links *goquery.Selection, limit int, base *url.URL, baseURL, previous string) []anchor {
	var out []anchor
	links.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if skipHref(href) {
			return true
		}
		abs, ok := resolveHref(base, href)
		if !ok {
			return true
		}
		if withoutFragment(abs) == withoutFragment(baseURL) || abs == previous {
			return true
		}
		out = append(out, anchor{url: abs, text: collapse(s.Text())})
		return true
	})
	return out
}

func skipHref(href string) bool {
	lower := strings.ToLower(href)
	return href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "javascript:")
}
