package extract

import (
	"reflect"
	"testing"
)

func TestPageMeta(t *testing.T) {
	doc := mustParse(t, `<html><head><title> Acme | Home </title>
<meta property="og:description" content="Acme builds rockets."></head><body></body></html>`)

	meta := PageMeta(doc)
	if meta.Title != "Acme | Home" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Text() != "Acme builds rockets." {
		t.Errorf("text = %q, want og description", meta.Text())
	}
}

func TestPageMeta_TitleFallback(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Acme</title></head><body></body></html>`)
	if got := PageMeta(doc).Text(); got != "Acme" {
		t.Errorf("text = %q, want title", got)
	}
}

func TestFeedLinks(t *testing.T) {
	doc := mustParse(t, `<html><head>
<link rel="stylesheet" type="text/css" href="/style.css">
<link rel="alternate" type="application/rss+xml" href="/feed.xml">
<link rel="alternate" type="application/atom+xml" href="https://cdn.ex.com/atom.xml">
<link rel="alternate" type="application/rss+xml" href="">
</head><body></body></html>`)

	got := FeedLinks(doc, "https://ex.com/blog/")
	want := []string{"https://ex.com/feed.xml", "https://cdn.ex.com/atom.xml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("links = %v, want %v", got, want)
	}
}

func TestFeedLinks_None(t *testing.T) {
	doc := mustParse(t, `<html><head><title>x</title></head></html>`)
	if got := FeedLinks(doc, "https://ex.com/"); len(got) != 0 {
		t.Errorf("links = %v, want none", got)
	}
}
