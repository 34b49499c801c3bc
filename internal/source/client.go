package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultUserAgent    = "Mozilla/5.0 (compatible; sitewatch/1.0; +https://github.com/ppiankov/sitewatch)"
	DefaultPageTimeout  = 15 * time.Second
	DefaultFeedTimeout  = 10 * time.Second
	DefaultMaxBodyBytes = 5 << 20

	pageAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	feedAccept = "application/rss+xml, application/atom+xml, application/xml, text/xml"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// userAgentTransport injects the identifying User-Agent into every request.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// response is a 2xx response read up to the body limit. truncated is set when
// the body was cut at that limit.
type response struct {
	contentType string
	body        []byte
	truncated   bool
}

// get performs one GET bounded by its own timeout. There are no retries.
func (c *Checker) get(ctx context.Context, rawURL, accept string, timeout time.Duration) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	truncated := int64(len(body)) > c.maxBodyBytes
	if truncated {
		body = body[:c.maxBodyBytes]
	}

	return &response{
		contentType: strings.ToLower(resp.Header.Get("Content-Type")),
		body:        body,
		truncated:   truncated,
	}, nil
}
