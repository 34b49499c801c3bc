package source

import (
	"context"
	"fmt"

	"github.com/ppiankov/sitewatch/internal/classify"
	"github.com/ppiankov/sitewatch/internal/extract"
)

const contentNotFoundMessage = "Could not find blog posts on this page."

// strategy either handles the check or passes (handled == false) to the next
// one. A non-nil error ends the check with a failure outcome.
type strategy func(ctx context.Context, c *Checker, req *request) (o Outcome, handled bool, err error)

// defaultStrategies is the fallback chain, most reliable identity source
// first. New source types are added by inserting a strategy.
func defaultStrategies() []strategy {
	return []strategy{
		directFeed,
		platformPolicy,
		inlineFeed,
		discoveredFeed,
		latestPost,
	}
}

// directFeed fetches URLs that look like feeds with a feed Accept header.
// Any failure passes; the page fetch that follows reports network errors.
func directFeed(ctx context.Context, c *Checker, req *request) (Outcome, bool, error) {
	if req.kind != classify.LikelyFeed {
		return Outcome{}, false, nil
	}
	resp, err := c.get(ctx, req.url, feedAccept, c.pageTimeout)
	if err != nil {
		return Outcome{}, false, nil
	}
	req.page = resp

	o, err := feedOutcome(resp.body, req.previous)
	if err != nil {
		return Outcome{}, false, nil
	}
	return o, true, nil
}

// platformPolicy handles login-gated social networks with page metadata
// only. Change detection is impossible there, so it never reports new content.
func platformPolicy(ctx context.Context, c *Checker, req *request) (Outcome, bool, error) {
	if req.kind != classify.SocialPlatform {
		return Outcome{}, false, nil
	}
	doc, err := req.document(ctx, c)
	if err != nil {
		return Outcome{}, false, err
	}

	meta := extract.PageMeta(doc)
	return Outcome{
		HasNewContent:   false,
		ContentIdentity: req.url,
		ContentText:     extract.Truncate(meta.Text(), maxFeedTextLen),
		ErrorKind:       ErrorPlatformLimitation,
		Message: fmt.Sprintf("%s requires login to view posts. Only page description available.",
			req.platform.Title()),
	}, true, nil
}

// inlineFeed parses the page itself as a feed when it is served as XML.
func inlineFeed(ctx context.Context, c *Checker, req *request) (Outcome, bool, error) {
	page, err := req.loadPage(ctx, c)
	if err != nil {
		return Outcome{}, false, err
	}
	declared := declaresXML(page.contentType)
	if !declared && !startsWithXMLDecl(page.body) {
		return Outcome{}, false, nil
	}

	o, err := feedOutcome(page.body, req.previous)
	if err == nil {
		return o, true, nil
	}
	if declared && !page.truncated && !wellFormedXML(page.body) {
		return Outcome{}, false, &ParseError{Err: fmt.Errorf("malformed XML served as %s", page.contentType)}
	}
	return Outcome{}, false, nil
}

// discoveredFeed follows the page's first RSS/Atom autodiscovery link.
func discoveredFeed(ctx context.Context, c *Checker, req *request) (Outcome, bool, error) {
	doc, err := req.document(ctx, c)
	if err != nil {
		return Outcome{}, false, err
	}
	links := extract.FeedLinks(doc, req.url)
	if len(links) == 0 {
		return Outcome{}, false, nil
	}

	o, err := c.FetchFeed(ctx, links[0], req.previous, c.feedTimeout)
	if err != nil {
		return Outcome{}, false, nil
	}
	return o, true, nil
}

// latestPost scrapes the page for the most likely latest-post link. It always
// handles the check; when no link qualifies the page URL stands in as identity.
func latestPost(ctx context.Context, c *Checker, req *request) (Outcome, bool, error) {
	doc, err := req.document(ctx, c)
	if err != nil {
		return Outcome{}, false, err
	}

	post := extract.LatestPost(doc, req.url, req.previous)
	if !post.Found() {
		return Outcome{
			ContentIdentity: req.url,
			ErrorKind:       ErrorContentNotFound,
			Message:         contentNotFoundMessage,
		}, true, nil
	}

	return Outcome{
		HasNewContent:   isNew(post.URL, req.previous),
		ContentIdentity: post.URL,
		ContentText:     post.Text,
	}, true, nil
}
