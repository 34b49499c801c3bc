package extract

import (
	"fmt"
	"strings"
	"testing"
)

func TestLooksLikePost(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://ex.com/blog/2024/01/launch-day", true},
		{"https://ex.com/2023/11/whatever", true},
		{"https://ex.com/news/item", true},
		{"https://ex.com/Post/abc", true},
		{"https://ex.com/p/launch-day", true},
		{"https://ex.com/p/launch-day/", true},
		{"https://ex.com/items/story-42", true},
		{"https://ex.com/about", false},
		{"https://ex.com/", false},
		{"https://ex.com/pricing?plan=pro-max", false},
	}

	for _, tt := range tests {
		if got := LooksLikePost(tt.url); got != tt.want {
			t.Errorf("LooksLikePost(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestLatestPost_ArticleLink(t *testing.T) {
	doc := mustParse(t, `<html><body><article>
<a href="/blog/2024/01/launch-day">Launch day is finally here for everyone</a>
</article></body></html>`)

	post := LatestPost(doc, "https://ex.com/blog", "")
	if post.URL != "https://ex.com/blog/2024/01/launch-day" {
		t.Errorf("url = %q", post.URL)
	}
	if post.Text != "Launch day is finally here for everyone" {
		t.Errorf("text = %q", post.Text)
	}
}

func TestLatestPost_SkipsExcludedLinks(t *testing.T) {
	doc := mustParse(t, `<body><article>
<a href="#top">Jump to the top of the page</a>
<a href="mailto:press@ex.com">Write to our press team today</a>
<a href="tel:+100">Call us on the phone right now</a>
<a href="javascript:void(0)">Open the navigation drawer now</a>
<a href="https://ex.com/blog">The blog index page itself</a>
<a href="/2024/02/old-news">Previously seen post title</a>
<a href="/2024/03/new-news">The newest post on this blog</a>
</article></body>`)

	post := LatestPost(doc, "https://ex.com/blog", "https://ex.com/2024/02/old-news")
	if post.URL != "https://ex.com/2024/03/new-news" {
		t.Errorf("url = %q, want the newest post", post.URL)
	}
}

func TestLatestPost_FirstPassNeedsText(t *testing.T) {
	doc := mustParse(t, `<body><article>
<a href="/2024/03/short">Read</a>
<a href="/2024/03/longer-title">Longer title here</a>
</article></body>`)

	post := LatestPost(doc, "https://ex.com/", "")
	if post.URL != "https://ex.com/2024/03/longer-title" {
		t.Errorf("url = %q", post.URL)
	}
}

func TestLatestPost_SecondPass(t *testing.T) {
	doc := mustParse(t, `<body><main>
<a href="/about">About</a>
<a href="/changelog">Our complete product changelog</a>
</main></body>`)

	post := LatestPost(doc, "https://ex.com/", "")
	if post.URL != "https://ex.com/changelog" {
		t.Errorf("url = %q", post.URL)
	}
	if post.Text != "Our complete product changelog" {
		t.Errorf("text = %q", post.Text)
	}
}

func TestLatestPost_FirstPassWindow(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body><main>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<a href="/page%d">x</a>`, i)
	}
	b.WriteString(`<a href="/2024/05/late-post">A post beyond the window</a>`)
	b.WriteString("</main></body>")

	post := LatestPost(mustParse(t, b.String()), "https://ex.com/", "")
	if post.Found() {
		t.Errorf("found %q, want nothing past the first 30 links", post.URL)
	}
}

func TestLatestPost_ThinAnchorUsesContainerText(t *testing.T) {
	doc := mustParse(t, `<body><article>
<h2>Quarterly results</h2>
<p>Revenue grew   strongly this quarter.</p>
<a href="/2024/04/q1-results">Read more</a>
</article></body>`)

	post := LatestPost(doc, "https://ex.com/", "")
	if post.URL != "https://ex.com/2024/04/q1-results" {
		t.Fatalf("url = %q", post.URL)
	}
	want := "Quarterly results Revenue grew strongly this quarter. Read more"
	if post.Text != want {
		t.Errorf("text = %q, want %q", post.Text, want)
	}
}

func TestLatestPost_ContainerTextCapped(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 200)
	doc := mustParse(t, `<body><article><p>`+long+`</p><a href="/2024/04/a-b">Go there</a></article></body>`)

	post := LatestPost(doc, "https://ex.com/", "")
	if n := len([]rune(post.Text)); n != MaxContextLen {
		t.Errorf("text length = %d, want %d", n, MaxContextLen)
	}
}

func TestLatestPost_NothingFound(t *testing.T) {
	doc := mustParse(t, `<body><article><p>No links at all.</p></article></body>`)
	post := LatestPost(doc, "https://ex.com/", "")
	if post.Found() {
		t.Errorf("found %q, want nothing", post.URL)
	}
}

// Document order stands in for recency; a newer post placed below an older
// one is not detected as the latest.
func TestLatestPost_DocumentOrderIsRecency(t *testing.T) {
	doc := mustParse(t, `<body><article>
<a href="/2023/01/older-post">An older post title</a>
<a href="/2024/01/newer-post">A newer post title</a>
</article></body>`)

	post := LatestPost(doc, "https://ex.com/", "")
	if post.URL != "https://ex.com/2023/01/older-post" {
		t.Errorf("url = %q, want first link in document order", post.URL)
	}
}
