// Package refresh checks stored sources with the engine and records the
// outcomes. Sources on the same host are checked sequentially and paced;
// distinct hosts run in parallel.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/sitewatch/internal/privacy"
	"github.com/ppiankov/sitewatch/internal/source"
	"github.com/ppiankov/sitewatch/internal/store"
)

const (
	DefaultWorkers     = 4
	DefaultDomainDelay = 3 * time.Second
)

// Checker runs one engine check.
type Checker interface {
	Check(ctx context.Context, rawURL, previous string) source.Outcome
}

// SourceStore is the subset of the store used by the runner.
type SourceStore interface {
	ListSources(ctx context.Context, category string) ([]store.Source, error)
	GetSource(ctx context.Context, id int64) (store.Source, error)
	RecordCheck(ctx context.Context, id int64, rec store.CheckRecord) error
}

// Options configure a Runner. Zero values select the defaults.
type Options struct {
	Workers     int
	DomainDelay time.Duration
	Policy      *privacy.Policy
	Logger      *zap.Logger
}

// Result is the outcome of checking one source. Err is set when the
// outcome could not be recorded or the run was cancelled first.
type Result struct {
	Source  store.Source
	Outcome source.Outcome
	Status  string
	Err     error
}

// Counts tallies results by status.
type Counts struct {
	Checked   int
	New       int
	NoUpdates int
	Limited   int
	Errors    int
	Failed    int
}

type Runner struct {
	checker     Checker
	store       SourceStore
	policy      *privacy.Policy
	logger      *zap.Logger
	workers     int
	domainDelay time.Duration
}

// nowFunc is the clock used for last-checked timestamps (overridable in tests).
var nowFunc = time.Now

func New(checker Checker, st SourceStore, opts Options) *Runner {
	r := &Runner{
		checker:     checker,
		store:       st,
		policy:      opts.Policy,
		logger:      opts.Logger,
		workers:     opts.Workers,
		domainDelay: opts.DomainDelay,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}
	if r.domainDelay < 0 {
		r.domainDelay = 0
	}
	return r
}

// StatusFor maps an engine outcome to the stored source status.
func StatusFor(out source.Outcome) string {
	switch {
	case out.ErrorKind.Hard():
		return store.StatusError
	case out.ErrorKind == source.ErrorPlatformLimitation:
		return store.StatusLimited
	case out.HasNewContent:
		return store.StatusNewUpdate
	default:
		return store.StatusNoUpdates
	}
}

// RunAll checks every stored source.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	sources, err := r.store.ListSources(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return r.Run(ctx, sources), nil
}

// RunOne checks a single stored source.
func (r *Runner) RunOne(ctx context.Context, id int64) (Result, error) {
	src, err := r.store.GetSource(ctx, id)
	if err != nil {
		return Result{}, err
	}
	results := r.Run(ctx, []store.Source{src})
	return results[0], nil
}

// Run checks the given sources and records each outcome. One source's
// failure never stops the others. Results are ordered by source id.
func (r *Runner) Run(ctx context.Context, sources []store.Source) []Result {
	if len(sources) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Group by host so same-host checks are serialized and paced.
	var order []string
	groups := make(map[string][]store.Source)
	for _, src := range sources {
		d := sourceDomain(src.URL)
		if _, ok := groups[d]; !ok {
			order = append(order, d)
		}
		groups[d] = append(groups[d], src)
	}

	workers := r.workers
	if len(groups) < workers {
		workers = len(groups)
	}

	r.logger.Info("refresh started",
		zap.Int("sources", len(sources)),
		zap.Int("domains", len(groups)),
		zap.Int("workers", workers),
	)
	started := time.Now()

	results := make(chan Result, len(sources))
	domainJobs := make(chan []store.Source, len(groups))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range domainJobs {
				r.runDomain(ctx, group, results)
			}
		}()
	}

	for _, d := range order {
		domainJobs <- groups[d]
	}
	close(domainJobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(sources))
	for res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source.ID < out[j].Source.ID })

	c := Tally(out)
	r.logger.Info("refresh finished",
		zap.Int("checked", c.Checked),
		zap.Int("new", c.New),
		zap.Int("errors", c.Errors),
		zap.Int("failed", c.Failed),
		zap.Duration("took", time.Since(started)),
	)

	return out
}

func (r *Runner) runDomain(ctx context.Context, group []store.Source, results chan<- Result) {
	limit := rate.Inf
	if r.domainDelay > 0 {
		limit = rate.Every(r.domainDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, src := range group {
		if err := limiter.Wait(ctx); err != nil {
			results <- Result{Source: src, Err: err}
			continue
		}
		results <- r.checkOne(ctx, src)
	}
}

func (r *Runner) checkOne(ctx context.Context, src store.Source) Result {
	out := r.checker.Check(ctx, src.URL, src.LastUpdateURL)
	res := Result{Source: src, Outcome: out, Status: StatusFor(out)}

	// A check cut short by cancellation says nothing about the source.
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	rec := store.CheckRecord{
		CheckedAt:       nowFunc(),
		Status:          res.Status,
		HasNewContent:   out.HasNewContent,
		ContentIdentity: out.ContentIdentity,
		ContentText:     r.policy.Content(out.ContentText),
		Summary:         r.policy.Summary(out.Summary),
		ErrorKind:       string(out.ErrorKind),
		ErrorMessage:    out.Message,
	}
	if err := r.store.RecordCheck(ctx, src.ID, rec); err != nil {
		res.Err = fmt.Errorf("record check for source %d: %w", src.ID, err)
		r.logger.Error("record check failed",
			zap.Int64("source_id", src.ID),
			zap.String("url", src.URL),
			zap.Error(err),
		)
		return res
	}

	fields := []zap.Field{
		zap.Int64("source_id", src.ID),
		zap.String("url", src.URL),
		zap.String("status", res.Status),
	}
	if out.ErrorKind != source.ErrorNone {
		fields = append(fields,
			zap.String("error_kind", string(out.ErrorKind)),
			zap.String("error", out.Message),
		)
	}
	if res.Status == store.StatusError {
		r.logger.Warn("source checked", fields...)
	} else {
		r.logger.Info("source checked", fields...)
	}

	return res
}

// Tally counts results by status.
func Tally(results []Result) Counts {
	var c Counts
	for _, res := range results {
		if res.Err != nil {
			c.Failed++
			continue
		}
		c.Checked++
		switch res.Status {
		case store.StatusNewUpdate:
			c.New++
		case store.StatusNoUpdates:
			c.NoUpdates++
		case store.StatusLimited:
			c.Limited++
		case store.StatusError:
			c.Errors++
		}
	}
	return c
}

// IsCancelled reports whether a result was skipped because the run stopped.
func IsCancelled(res Result) bool {
	return errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded)
}

// sourceDomain extracts the host from a source URL for pacing groups.
func sourceDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
