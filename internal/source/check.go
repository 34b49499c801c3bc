package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/sitewatch/internal/classify"
	"github.com/ppiankov/sitewatch/internal/extract"
	"github.com/ppiankov/sitewatch/internal/summarize"
)

// Checker runs the fetch-and-detect pipeline for one URL at a time. It holds
// configuration only and is safe for concurrent use.
type Checker struct {
	client          *http.Client
	pageTimeout     time.Duration
	feedTimeout     time.Duration
	maxBodyBytes    int64
	summarizer      summarize.Summarizer
	alwaysSummarize bool
	strategies      []strategy
}

// Option configures a Checker.
type Option func(*Checker)

// WithUserAgent sets the User-Agent sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Checker) {
		if ua != "" {
			c.client.Transport = &userAgentTransport{base: baseTransport(c.client), userAgent: ua}
		}
	}
}

// WithTransport replaces the underlying round tripper (the User-Agent is kept).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Checker) {
		ua := DefaultUserAgent
		if t, ok := c.client.Transport.(*userAgentTransport); ok {
			ua = t.userAgent
		}
		c.client.Transport = &userAgentTransport{base: rt, userAgent: ua}
	}
}

// WithTimeouts sets the page (top-level) and discovered-feed timeouts.
func WithTimeouts(page, feed time.Duration) Option {
	return func(c *Checker) {
		if page > 0 {
			c.pageTimeout = page
		}
		if feed > 0 {
			c.feedTimeout = feed
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is read. Longer bodies
// are cut at n bytes; a cut XML body is never reported as a parse failure.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Checker) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithSummarizer replaces the extractive summarizer.
func WithSummarizer(s summarize.Summarizer) Option {
	return func(c *Checker) {
		if s != nil {
			c.summarizer = s
		}
	}
}

// WithAlwaysSummarize produces a summary for every outcome carrying text,
// not only for new content.
func WithAlwaysSummarize(on bool) Option {
	return func(c *Checker) {
		c.alwaysSummarize = on
	}
}

// NewChecker creates a Checker with the default HTTP settings.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		client: &http.Client{
			Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: DefaultUserAgent},
		},
		pageTimeout:  DefaultPageTimeout,
		feedTimeout:  DefaultFeedTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		summarizer:   summarize.Extractive{},
		strategies:   defaultStrategies(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func baseTransport(client *http.Client) http.RoundTripper {
	if t, ok := client.Transport.(*userAgentTransport); ok {
		return t.base
	}
	if client.Transport != nil {
		return client.Transport
	}
	return http.DefaultTransport
}

// Check fetches rawURL and decides whether it has content newer than
// previous (empty when the source was never checked). It never panics and
// never returns an error: every failure is reported through ErrorKind.
func (c *Checker) Check(ctx context.Context, rawURL, previous string) (out Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			out = failure(ErrorParseFailure, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	req := &request{url: rawURL, previous: previous}
	req.kind, req.platform = classify.URL(rawURL)

	for _, s := range c.strategies {
		o, handled, err := s(ctx, c, req)
		if err != nil {
			return failure(errorKind(err), err)
		}
		if handled {
			return c.finish(o)
		}
	}

	return Outcome{ContentIdentity: rawURL, ErrorKind: ErrorContentNotFound, Message: contentNotFoundMessage}
}

func (c *Checker) finish(o Outcome) Outcome {
	if o.HasNewContent || (c.alwaysSummarize && o.ContentText != "") {
		o.Summary = c.summarizer.Summarize(o.ContentText)
	}
	return o
}

func errorKind(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return ErrorParseFailure
	}
	return ErrorNetwork
}

// request carries the per-check state shared by the strategies. The page is
// fetched at most once.
type request struct {
	url      string
	previous string
	kind     classify.Kind
	platform classify.Platform

	page *response
	doc  *goquery.Document
}

func (r *request) loadPage(ctx context.Context, c *Checker) (*response, error) {
	if r.page != nil {
		return r.page, nil
	}
	page, err := c.get(ctx, r.url, pageAccept, c.pageTimeout)
	if err != nil {
		return nil, err
	}
	r.page = page
	return page, nil
}

// document parses the page as HTML and strips boilerplate nodes.
func (r *request) document(ctx context.Context, c *Checker) (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	page, err := r.loadPage(ctx, c)
	if err != nil {
		return nil, err
	}
	doc, err := extract.Parse(bytes.NewReader(page.body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	extract.StripBoilerplate(doc)
	r.doc = doc
	return doc, nil
}
