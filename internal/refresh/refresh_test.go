package refresh

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/sitewatch/internal/privacy"
	"github.com/ppiankov/sitewatch/internal/source"
	"github.com/ppiankov/sitewatch/internal/store"
)

type call struct {
	url      string
	previous string
	at       time.Time
}

// fakeChecker returns canned outcomes keyed by URL.
type fakeChecker struct {
	mu       sync.Mutex
	outcomes map[string]source.Outcome
	calls    []call
}

func (f *fakeChecker) Check(_ context.Context, rawURL, previous string) source.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{url: rawURL, previous: previous, at: time.Now()})
	return f.outcomes[rawURL]
}

func (f *fakeChecker) callsFor(rawURL string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.url == rawURL {
			out = append(out, c)
		}
	}
	return out
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sitewatch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func addSources(t *testing.T, st *store.Store, urls ...string) []store.Source {
	t.Helper()
	var out []store.Source
	for _, u := range urls {
		src, err := st.AddSource(context.Background(), store.SourceInput{URL: u})
		if err != nil {
			t.Fatalf("add %s: %v", u, err)
		}
		out = append(out, src)
	}
	return out
}

func fixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return ts }
	t.Cleanup(func() { nowFunc = orig })
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		out  source.Outcome
		want string
	}{
		{"new", source.Outcome{HasNewContent: true, ContentIdentity: "u"}, store.StatusNewUpdate},
		{"unchanged", source.Outcome{ContentIdentity: "u"}, store.StatusNoUpdates},
		{"network", source.Outcome{ErrorKind: source.ErrorNetwork}, store.StatusError},
		{"parse", source.Outcome{ErrorKind: source.ErrorParseFailure}, store.StatusError},
		{"not found", source.Outcome{ErrorKind: source.ErrorContentNotFound}, store.StatusError},
		{"platform", source.Outcome{ErrorKind: source.ErrorPlatformLimitation, ContentIdentity: "u"}, store.StatusLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.out); got != tt.want {
				t.Errorf("StatusFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunAll_RecordsOutcomes(t *testing.T) {
	st := openTestStore(t)
	srcs := addSources(t, st,
		"https://a.example/blog",
		"https://b.example/",
		"https://www.facebook.com/acme",
	)
	checked := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	fixedNow(t, checked)

	fc := &fakeChecker{outcomes: map[string]source.Outcome{
		"https://a.example/blog": {
			HasNewContent:   true,
			ContentIdentity: "https://a.example/blog/post-1",
			ContentText:     "Post one. Body",
			Summary:         "Post one.",
		},
		"https://b.example/": {
			ContentIdentity: "https://b.example/",
			ErrorKind:       source.ErrorNetwork,
			Message:         "HTTP 503",
		},
		"https://www.facebook.com/acme": {
			ContentIdentity: "https://www.facebook.com/acme",
			ContentText:     "Acme page",
			ErrorKind:       source.ErrorPlatformLimitation,
			Message:         "Facebook requires login to view posts. Only page description available.",
		},
	}}

	results, err := New(fc, st, Options{DomainDelay: time.Millisecond}).RunAll(context.Background())
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Source.ID != srcs[i].ID {
			t.Errorf("result %d has source %d, want %d", i, res.Source.ID, srcs[i].ID)
		}
		if res.Err != nil {
			t.Errorf("result %d: %v", i, res.Err)
		}
	}

	a, _ := st.GetSource(context.Background(), srcs[0].ID)
	if a.Status != store.StatusNewUpdate || a.LastUpdateURL != "https://a.example/blog/post-1" {
		t.Errorf("source a = %+v", a)
	}
	if !a.LastChecked.Equal(checked) {
		t.Errorf("last_checked = %v", a.LastChecked)
	}

	b, _ := st.GetSource(context.Background(), srcs[1].ID)
	if b.Status != store.StatusError || b.ErrorKind != "network" || b.ErrorMessage != "HTTP 503" {
		t.Errorf("source b = %+v", b)
	}
	if b.LastUpdateURL != "" {
		t.Errorf("failed check must not set identity: %q", b.LastUpdateURL)
	}

	fb, _ := st.GetSource(context.Background(), srcs[2].ID)
	if fb.Status != store.StatusLimited || fb.ErrorKind != "platform_limitation" {
		t.Errorf("source fb = %+v", fb)
	}

	c := Tally(results)
	if c.Checked != 3 || c.New != 1 || c.Errors != 1 || c.Limited != 1 || c.Failed != 0 {
		t.Errorf("tally = %+v", c)
	}
}

func TestRun_PassesPreviousIdentity(t *testing.T) {
	st := openTestStore(t)
	srcs := addSources(t, st, "https://a.example/blog")
	ctx := context.Background()

	if err := st.RecordCheck(ctx, srcs[0].ID, store.CheckRecord{
		Status:          store.StatusNewUpdate,
		HasNewContent:   true,
		ContentIdentity: "https://a.example/blog/post-1",
		Summary:         "Old summary.",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fc := &fakeChecker{outcomes: map[string]source.Outcome{
		"https://a.example/blog": {ContentIdentity: "https://a.example/blog/post-1"},
	}}

	res, err := New(fc, st, Options{}).RunOne(ctx, srcs[0].ID)
	if err != nil {
		t.Fatalf("run one: %v", err)
	}
	if res.Status != store.StatusNoUpdates {
		t.Errorf("status = %q", res.Status)
	}

	calls := fc.callsFor("https://a.example/blog")
	if len(calls) != 1 || calls[0].previous != "https://a.example/blog/post-1" {
		t.Fatalf("calls = %+v", calls)
	}

	got, _ := st.GetSource(ctx, srcs[0].ID)
	if got.LastSummary != "Old summary." {
		t.Errorf("summary replaced on no-update check: %q", got.LastSummary)
	}
}

func TestRunOne_NotFound(t *testing.T) {
	st := openTestStore(t)
	_, err := New(&fakeChecker{}, st, Options{}).RunOne(context.Background(), 99)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRun_SameDomainIsPaced(t *testing.T) {
	st := openTestStore(t)
	addSources(t, st, "https://a.example/one", "https://a.example/two", "https://b.example/")

	fc := &fakeChecker{outcomes: map[string]source.Outcome{}}
	delay := 80 * time.Millisecond

	if _, err := New(fc, st, Options{Workers: 2, DomainDelay: delay}).RunAll(context.Background()); err != nil {
		t.Fatalf("run all: %v", err)
	}

	one := fc.callsFor("https://a.example/one")
	two := fc.callsFor("https://a.example/two")
	if len(one) != 1 || len(two) != 1 {
		t.Fatalf("expected one call each, got %d and %d", len(one), len(two))
	}
	// Allow a little scheduler slack below the configured delay.
	if gap := two[0].at.Sub(one[0].at); gap < delay-10*time.Millisecond {
		t.Errorf("same-domain gap = %v, want at least %v", gap, delay)
	}
}

func TestRun_PolicyApplied(t *testing.T) {
	st := openTestStore(t)
	srcs := addSources(t, st, "https://a.example/blog")

	policy, err := privacy.NewPolicy(false, true, []string{`secret-\w+`})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	fc := &fakeChecker{outcomes: map[string]source.Outcome{
		"https://a.example/blog": {
			HasNewContent:   true,
			ContentIdentity: "https://a.example/blog/p",
			ContentText:     "full body text",
			Summary:         "Leaked secret-abc here.",
		},
	}}

	if _, err := New(fc, st, Options{Policy: policy}).RunOne(context.Background(), srcs[0].ID); err != nil {
		t.Fatalf("run one: %v", err)
	}

	got, _ := st.GetSource(context.Background(), srcs[0].ID)
	if got.LastContent != "" {
		t.Errorf("content stored despite store_full_text=false: %q", got.LastContent)
	}
	if got.LastSummary != "Leaked [REDACTED] here." {
		t.Errorf("summary = %q", got.LastSummary)
	}
}

func TestRun_CancelledContextSkipsRecording(t *testing.T) {
	st := openTestStore(t)
	srcs := addSources(t, st, "https://a.example/blog")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &fakeChecker{outcomes: map[string]source.Outcome{}}
	results := New(fc, st, Options{}).Run(ctx, srcs)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !IsCancelled(results[0]) {
		t.Errorf("expected cancelled result, got %+v", results[0])
	}

	got, _ := st.GetSource(context.Background(), srcs[0].ID)
	if got.Status != store.StatusPending || !got.LastChecked.IsZero() {
		t.Errorf("cancelled run should not record: %+v", got)
	}
	if c := Tally(results); c.Failed != 1 || c.Checked != 0 {
		t.Errorf("tally = %+v", c)
	}
}

func TestRun_Empty(t *testing.T) {
	if got := New(&fakeChecker{}, openTestStore(t), Options{}).Run(context.Background(), nil); got != nil {
		t.Errorf("expected nil results, got %v", got)
	}
}

func TestSourceDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://a.example/blog", "a.example"},
		{"http://a.example:8080/x", "a.example:8080"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := sourceDomain(tt.in); got != tt.want {
			t.Errorf("sourceDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
