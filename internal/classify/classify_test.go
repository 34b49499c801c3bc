package classify

import "testing"

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		kind     Kind
		platform Platform
	}{
		{"feed xml suffix", "https://example.com/feed.xml", LikelyFeed, ""},
		{"rss suffix", "https://example.com/posts.rss", LikelyFeed, ""},
		{"feed path", "https://example.com/blog/feed", LikelyFeed, ""},
		{"rss path", "https://example.com/rss/latest", LikelyFeed, ""},
		{"atom path", "https://example.com/atom", LikelyFeed, ""},
		{"feeds host", "https://feeds.example.com/main", LikelyFeed, ""},
		{"rss.app", "https://rss.app/v1/abc123", LikelyFeed, ""},
		{"feedburner", "https://feedburner.com/acme", LikelyFeed, ""},
		{"uppercase", "https://EXAMPLE.com/FEED.XML", LikelyFeed, ""},
		{"blog page", "https://example.com/blog", GenericPage, ""},
		{"root page", "https://example.com/", GenericPage, ""},
		{"facebook", "https://www.facebook.com/acme", SocialPlatform, Facebook},
		{"facebook feed path", "https://facebook.com/acme/feed", SocialPlatform, Facebook},
		{"fb.com", "https://fb.com/acme", SocialPlatform, Facebook},
		{"fb subdomain", "https://m.fb.com/acme", SocialPlatform, Facebook},
		{"linkedin", "https://www.linkedin.com/company/acme/", SocialPlatform, LinkedIn},
		{"linkedin rss-like", "https://linkedin.com/company/acme/posts.rss", SocialPlatform, LinkedIn},
		{"fb.com lookalike", "https://myfb.company.io/news", GenericPage, ""},
		{"empty", "", GenericPage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, platform := URL(tt.url)
			if kind != tt.kind {
				t.Errorf("URL(%q) kind = %v, want %v", tt.url, kind, tt.kind)
			}
			if platform != tt.platform {
				t.Errorf("URL(%q) platform = %q, want %q", tt.url, platform, tt.platform)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if LikelyFeed.String() != "likely_feed" {
		t.Errorf("got %q", LikelyFeed.String())
	}
	if SocialPlatform.String() != "social_platform" {
		t.Errorf("got %q", SocialPlatform.String())
	}
	if GenericPage.String() != "generic_page" {
		t.Errorf("got %q", GenericPage.String())
	}
}

func TestPlatformTitle(t *testing.T) {
	if Facebook.Title() != "Facebook" || LinkedIn.Title() != "LinkedIn" {
		t.Errorf("titles = %q, %q", Facebook.Title(), LinkedIn.Title())
	}
}
