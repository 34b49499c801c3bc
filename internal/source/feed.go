package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/sitewatch/internal/extract"
)

const maxFeedTextLen = 500

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ErrNotFeed means the body is not a feed or its first item has no link.
var ErrNotFeed = errors.New("not a feed")

// ParseError wraps a structurally broken document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FetchFeed retrieves feedURL and reports its first item. Transport failures
// and non-2xx responses are returned as errors so the caller can fall back to
// page extraction.
func (c *Checker) FetchFeed(ctx context.Context, feedURL, previous string, timeout time.Duration) (Outcome, error) {
	resp, err := c.get(ctx, feedURL, feedAccept, timeout)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	return feedOutcome(resp.body, previous)
}

// feedItem is the first entry of a feed, reduced to what a check needs.
type feedItem struct {
	link  string
	title string
	text  string
}

// feedOutcome treats the first item of the feed as the latest one. Feeds are
// assumed to be reverse-chronological; dates are never parsed.
func feedOutcome(body []byte, previous string) (Outcome, error) {
	item, err := latestItem(body)
	if err != nil {
		return Outcome{}, err
	}

	text := strings.TrimSpace(item.title + ". " + item.text)

	return Outcome{
		HasNewContent:   isNew(item.link, previous),
		ContentIdentity: item.link,
		ContentText:     extract.Truncate(text, maxFeedTextLen),
	}, nil
}

// latestItem reads the first item with gofeed and falls back to a tag-name
// scan when gofeed rejects the document or finds no link.
func latestItem(body []byte) (feedItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err == nil && len(feed.Items) > 0 {
		if link := itemLink(feed.Items[0]); link != "" {
			return feedItem{
				link:  link,
				title: strings.TrimSpace(feed.Items[0].Title),
				text:  itemText(feed.Items[0]),
			}, nil
		}
	}

	if item, ok := scanFeedItem(body); ok {
		return item, nil
	}
	if err != nil && !errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return feedItem{}, &ParseError{Err: err}
	}
	return feedItem{}, ErrNotFeed
}

func itemLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, l := range item.Links {
		if link := strings.TrimSpace(l); link != "" {
			return link
		}
	}
	return ""
}

func itemText(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	return stripHTML(raw)
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// scanFeedItem looks for the first <item>, then the first <entry>, by local
// name in any case and namespace. RSS items prefer a text link, Atom entries
// an href.
func scanFeedItem(body []byte) (feedItem, bool) {
	if raw, ok := scanElement(body, "item", "description"); ok {
		if link := firstNonEmpty(raw.link, raw.href); link != "" {
			return feedItem{link: link, title: raw.title, text: stripHTML(raw.text)}, true
		}
	}
	if raw, ok := scanElement(body, "entry", "summary", "content"); ok {
		if link := firstNonEmpty(raw.href, raw.link); link != "" {
			return feedItem{link: link, title: raw.title, text: stripHTML(raw.text)}, true
		}
	}
	return feedItem{}, false
}

type rawItem struct {
	title string
	link  string
	href  string
	text  string
}

// scanElement finds the first element named tag and reads the first title,
// link and text element below it.
func scanElement(body []byte, tag string, textTags ...string) (rawItem, bool) {
	dec := lenientDecoder(body)
	for {
		tok, err := dec.Token()
		if err != nil {
			return rawItem{}, false
		}
		if se, ok := tok.(xml.StartElement); ok && strings.EqualFold(se.Name.Local, tag) {
			return readItem(dec, textTags), true
		}
	}
}

func readItem(dec *xml.Decoder, textTags []string) rawItem {
	var (
		it                            rawItem
		haveTitle, haveLink, haveText bool
	)
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return it
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			switch {
			case name == "link" && !haveLink:
				haveLink = true
				it.href = strings.TrimSpace(attrValue(t, "href"))
				it.link = elementText(dec)
			case name == "title" && !haveTitle:
				haveTitle = true
				it.title = elementText(dec)
			case !haveText && slices.Contains(textTags, name):
				haveText = true
				it.text = elementText(dec)
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return it
}

// elementText consumes the current element and returns its trimmed text.
func elementText(dec *xml.Decoder) string {
	var b strings.Builder
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return strings.TrimSpace(b.String())
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// lenientDecoder tolerates unknown entities and mismatched tags, and ignores
// declared charsets.
func lenientDecoder(body []byte) *xml.Decoder {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = passthroughCharset
	return dec
}

func passthroughCharset(_ string, r io.Reader) (io.Reader, error) {
	return r, nil
}

// declaresXML reports an XML or RSS content type. XHTML pages are HTML.
func declaresXML(contentType string) bool {
	if strings.Contains(contentType, "html") {
		return false
	}
	return strings.Contains(contentType, "xml") || strings.Contains(contentType, "rss")
}

func startsWithXMLDecl(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(body, " \t\r\n\ufeff"), []byte("<?xml"))
}

// wellFormedXML walks every token of body with a strict decoder.
func wellFormedXML(body []byte) bool {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.CharsetReader = passthroughCharset
	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sawElement
		}
		if err != nil {
			return false
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawElement = true
		}
	}
}
