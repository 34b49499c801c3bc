// Package classify decides, from a URL string alone, how a source should be fetched.
package classify

import (
	"net/url"
	"strings"
)

// Kind is the fetch strategy suggested by a URL.
type Kind int

const (
	GenericPage Kind = iota
	LikelyFeed
	SocialPlatform
)

func (k Kind) String() string {
	switch k {
	case LikelyFeed:
		return "likely_feed"
	case SocialPlatform:
		return "social_platform"
	default:
		return "generic_page"
	}
}

// Platform names a login-gated social network.
type Platform string

const (
	Facebook Platform = "facebook"
	LinkedIn Platform = "linkedin"
)

// Title returns the display name used in user-facing messages.
func (p Platform) Title() string {
	switch p {
	case Facebook:
		return "Facebook"
	case LinkedIn:
		return "LinkedIn"
	default:
		return string(p)
	}
}

// feedHosts are hosting services whose URLs are feeds regardless of path.
var feedHosts = []string{"rss.app", "feedburner.com"}

// feedFragments mark a feed anywhere in the URL.
var feedFragments = []string{"/feed", "/rss", "/atom", "feeds."}

var feedSuffixes = []string{".xml", ".rss"}

// URL classifies raw. Social platforms are checked first so a social URL is
// never treated as a feed, whatever its path looks like.
func URL(raw string) (Kind, Platform) {
	lower := strings.ToLower(strings.TrimSpace(raw))

	if p, ok := socialPlatform(lower); ok {
		return SocialPlatform, p
	}
	if isLikelyFeed(lower) {
		return LikelyFeed, ""
	}
	return GenericPage, ""
}

func socialPlatform(lower string) (Platform, bool) {
	if strings.Contains(lower, "facebook.com") {
		return Facebook, true
	}
	if strings.Contains(lower, "linkedin.com") {
		return LinkedIn, true
	}
	// fb.com is matched on the host only; a substring match would also catch
	// hosts such as myfb.company.io.
	if host := hostOf(lower); host == "fb.com" || strings.HasSuffix(host, ".fb.com") {
		return Facebook, true
	}
	return "", false
}

func isLikelyFeed(lower string) bool {
	for _, h := range feedHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	for _, f := range feedFragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	for _, s := range feedSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
