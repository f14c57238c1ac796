package crawler

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/webgrab/webgrab/internal/fetcher"
	"github.com/webgrab/webgrab/internal/logger"
	"github.com/webgrab/webgrab/internal/media"
	"github.com/webgrab/webgrab/internal/urlutil"
)

// Config holds engine configuration.
type Config struct {
	// Traversal
	Deep           bool // Follow discovered links; otherwise only the seed is fetched
	MaxDepth       int  `validate:"min=0"` // Max link depth for deep crawls
	MaxPages       int  `validate:"min=0"` // Max pages fetched (0 = unlimited)
	FollowExternal bool // Follow links off the seed's host

	// Fetching
	Concurrency    int `validate:"min=1,max=64"`
	RetryAttempts  int `validate:"min=1"`
	RetryBaseDelay time.Duration
	Delay          time.Duration // Delay before each fetch
	Timeout        time.Duration

	// Hosts failing this many consecutive fetches are excluded for the
	// rest of the run and appended to the exclusion list (0 = disabled).
	FailThreshold int `validate:"min=0"`
}

// DefaultConfig returns sensible engine defaults.
func DefaultConfig() Config {
	return Config{
		Deep:           false,
		MaxDepth:       3,
		Concurrency:    4,
		RetryAttempts:  3,
		RetryBaseDelay: 500 * time.Millisecond,
		Delay:          200 * time.Millisecond,
		Timeout:        30 * time.Second,
		FailThreshold:  5,
	}
}

// State is the orchestrator lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateSeeding
	StateRunning
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeding:
		return "seeding"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// RobotsPolicy gates fetches on robots.txt rules.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool
}

// Downloader retrieves collected media refs. Implemented by
// media.Downloader.
type Downloader interface {
	DownloadAll(ctx context.Context, refs []media.Ref) []media.Ref
}

// Engine orchestrates one crawl run: it owns the frontier, the visited
// ledger and the visit records. An Engine is single-use; a new run
// starts a fresh Engine.
type Engine struct {
	fetcher    fetcher.Fetcher
	robots     RobotsPolicy
	filter     *DomainFilter
	downloader Downloader
	cfg        Config
	fetchOpts  fetcher.Options

	frontier *Frontier
	visited  *Visited
	state    atomic.Int32

	mu        sync.Mutex
	seed      string
	records   map[string]*VisitRecord
	order     []string
	excluded  int
	malformed int
	hostFails map[string]int

	manifest *Manifest
}

// New builds an engine. robots and downloader may be nil to disable
// robots checking and media downloading respectively.
func New(f fetcher.Fetcher, rb RobotsPolicy, filter *DomainFilter, dl Downloader, cfg Config, fetchOpts fetcher.Options) (*Engine, error) {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, err
	}
	if filter == nil {
		filter = NewDomainFilter()
	}

	maxDepth := 0
	if cfg.Deep {
		maxDepth = cfg.MaxDepth
	}
	if fetchOpts.Timeout == 0 {
		fetchOpts.Timeout = cfg.Timeout
	}

	e := &Engine{
		fetcher:    f,
		robots:     rb,
		filter:     filter,
		downloader: dl,
		cfg:        cfg,
		fetchOpts:  fetchOpts,
		frontier:   NewFrontier(maxDepth, cfg.MaxPages),
		visited:    NewVisited(),
		records:    make(map[string]*VisitRecord),
		hostFails:  make(map[string]int),
	}
	e.state.Store(int32(StateIdle))
	return e, nil
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	logger.Debug("engine state", "state", s.String())
}

// Crawl seeds the frontier and starts the run. Results for each visited
// page arrive on the returned channel; the channel closes when the
// frontier drains or ctx is cancelled. Only seed normalization can fail.
func (e *Engine) Crawl(ctx context.Context, seedURL string) (<-chan Result, error) {
	e.setState(StateSeeding)

	normalized, err := urlutil.Normalize(seedURL, nil)
	if err != nil {
		e.setState(StateDone)
		return nil, fetcher.NewError(fetcher.KindInvalidURL, err)
	}

	e.mu.Lock()
	e.seed = normalized
	e.mu.Unlock()

	e.visited.MarkPending(normalized)
	e.frontier.Push(Entry{URL: normalized, Depth: 0})

	logger.Info("crawl starting",
		"seed", normalized,
		"deep", e.cfg.Deep,
		"max_depth", e.cfg.MaxDepth,
		"max_pages", e.cfg.MaxPages,
		"concurrency", e.cfg.Concurrency)

	results := make(chan Result, 100)
	go func() {
		defer close(results)
		e.run(ctx, results)
	}()
	return results, nil
}

func (e *Engine) run(ctx context.Context, results chan<- Result) {
	e.setState(StateRunning)

	sem := make(chan struct{}, e.cfg.Concurrency)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			// Let in-flight workers finish; no new entries are claimed.
			e.setState(StateDraining)
			wg.Wait()
			e.finalize()
			return
		default:
		}

		entry, ok := e.frontier.Pop()
		if !ok {
			e.setState(StateDraining)
			wg.Wait()
			if e.frontier.Len() == 0 {
				e.finalize()
				return
			}
			e.setState(StateRunning)
			continue
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(entry Entry) {
			defer wg.Done()
			defer func() { <-sem }()

			if e.cfg.Delay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(e.cfg.Delay):
				}
			}
			e.process(ctx, entry, results)
		}(entry)
	}
}

// process handles one claimed URL fully: fetch with retries, route
// links, collect media, finalize the record.
func (e *Engine) process(ctx context.Context, entry Entry, results chan<- Result) {
	logger.Debug("processing", "url", entry.URL, "depth", entry.Depth)

	rec := e.openRecord(entry)

	if e.robots != nil && !e.robots.Allowed(ctx, entry.URL) {
		e.failRecord(rec, fetcher.NewError(fetcher.KindBlockedByRobots, nil), 0, results)
		return
	}

	fetchStart := time.Now()
	page, attempts, err := e.fetchWithRetry(ctx, entry.URL)
	fetchDuration := time.Since(fetchStart)

	if err != nil {
		logger.Info("fetch failed",
			"url", entry.URL,
			"error", err,
			"attempts", attempts,
			"duration", fetchDuration.Round(time.Millisecond))
		e.failRecord(rec, fetcher.Classify(err), attempts, results)
		return
	}

	e.noteHostSuccess(entry.URL)

	links := e.routeLinks(entry, page)
	refs := media.Collect(page)
	if e.downloader != nil && len(refs) > 0 {
		refs = e.downloader.DownloadAll(ctx, refs)
	}

	e.mu.Lock()
	rec.Status = StatusSuccess
	rec.DiscoveredLinks = links
	rec.Media = refs
	rec.Attempts = attempts
	e.mu.Unlock()

	logger.Info("fetched",
		"url", entry.URL,
		"depth", entry.Depth,
		"links", len(links),
		"media", len(refs),
		"duration", fetchDuration.Round(time.Millisecond))

	results <- Result{
		URL:           entry.URL,
		Depth:         entry.Depth,
		Origin:        entry.Origin,
		Status:        StatusSuccess,
		Title:         page.Title,
		HTML:          page.HTML,
		Links:         links,
		Media:         refs,
		Attempts:      attempts,
		FetchedAt:     page.FetchedAt,
		FetchDuration: fetchDuration,
	}
}

// fetchWithRetry retries transient failures with exponential backoff.
// Terminal failures (4xx, robots, cancellation) return immediately.
func (e *Engine) fetchWithRetry(ctx context.Context, target string) (fetcher.PageContent, int, error) {
	var lastErr *fetcher.Error

	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		page, err := e.fetcher.Fetch(ctx, target, e.fetchOpts)
		if err == nil {
			return page, attempt, nil
		}

		lastErr = fetcher.Classify(err)
		if !lastErr.Retryable() {
			return page, attempt, lastErr
		}

		if attempt < e.cfg.RetryAttempts {
			backoff := e.cfg.RetryBaseDelay * (1 << (attempt - 1))
			logger.Debug("retrying fetch",
				"url", target,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return page, attempt, fetcher.NewError(fetcher.KindCancelled, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return fetcher.PageContent{}, e.cfg.RetryAttempts, lastErr
}

// routeLinks is the only place link-graph growth is decided: normalize,
// filter, dedup, then either enqueue (deep crawl) or record only.
func (e *Engine) routeLinks(entry Entry, page fetcher.PageContent) []string {
	base, err := url.Parse(page.URL)
	if err != nil {
		base = nil
	}

	e.mu.Lock()
	seed := e.seed
	e.mu.Unlock()

	var recorded []string
	for _, raw := range page.Links {
		normalized, err := urlutil.Normalize(raw, base)
		if err != nil {
			e.mu.Lock()
			e.malformed++
			e.mu.Unlock()
			continue
		}

		if e.filter.IsExcluded(normalized) {
			e.mu.Lock()
			e.excluded++
			e.mu.Unlock()
			continue
		}

		if !e.visited.MarkPending(normalized) {
			continue
		}

		recorded = append(recorded, normalized)

		if !e.cfg.Deep {
			continue
		}
		if !e.cfg.FollowExternal && !urlutil.SameHost(seed, normalized) {
			// Recorded for the manifest but never traversed.
			continue
		}
		e.frontier.Push(Entry{URL: normalized, Depth: entry.Depth + 1, Origin: entry.URL})
	}
	return recorded
}

func (e *Engine) openRecord(entry Entry) *VisitRecord {
	rec := &VisitRecord{
		URL:    entry.URL,
		Depth:  entry.Depth,
		Origin: entry.Origin,
		Status: StatusPending,
	}

	e.mu.Lock()
	e.records[entry.URL] = rec
	e.order = append(e.order, entry.URL)
	e.mu.Unlock()
	return rec
}

func (e *Engine) failRecord(rec *VisitRecord, fe *fetcher.Error, attempts int, results chan<- Result) {
	e.mu.Lock()
	rec.Status = StatusFailed
	rec.ErrorKind = fe.Kind
	rec.Attempts = attempts
	e.mu.Unlock()

	e.noteHostFailure(rec.URL, fe.Kind)

	results <- Result{
		URL:       rec.URL,
		Depth:     rec.Depth,
		Origin:    rec.Origin,
		Status:    StatusFailed,
		Err:       fe,
		ErrorKind: fe.Kind,
		Attempts:  attempts,
	}
}

// noteHostFailure counts consecutive terminal failures per host and
// excludes the host once the threshold is reached. Cancellation is a
// run-level stop signal, not evidence against the host, and robots
// blocks are policy rather than host health, so neither counts.
func (e *Engine) noteHostFailure(rawURL string, kind fetcher.ErrorKind) {
	if e.cfg.FailThreshold <= 0 {
		return
	}
	if kind == fetcher.KindCancelled || kind == fetcher.KindBlockedByRobots {
		return
	}
	host := urlutil.Hostname(rawURL)
	if host == "" {
		return
	}

	e.mu.Lock()
	e.hostFails[host]++
	count := e.hostFails[host]
	e.mu.Unlock()

	if count < e.cfg.FailThreshold {
		return
	}

	logger.Warn("excluding host after repeated failures", "host", host, "failures", count)
	if err := e.filter.Exclude(host); err != nil {
		logger.Error("failed to persist exclusion", "host", host, "error", err)
	}
}

func (e *Engine) noteHostSuccess(rawURL string) {
	if e.cfg.FailThreshold <= 0 {
		return
	}
	host := urlutil.Hostname(rawURL)
	if host == "" {
		return
	}

	e.mu.Lock()
	delete(e.hostFails, host)
	e.mu.Unlock()
}

func (e *Engine) finalize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := &Manifest{
		Seed:           e.seed,
		GeneratedAt:    time.Now().UTC(),
		VisitedCount:   len(e.records),
		ExcludedLinks:  e.excluded,
		MalformedLinks: e.malformed,
	}

	for _, u := range e.order {
		rec := e.records[u]
		switch rec.Status {
		case StatusSuccess:
			m.SuccessCount++
		case StatusFailed:
			m.FailedCount++
		}
		m.Pages = append(m.Pages, *rec)
		m.DownloadedMedia = append(m.DownloadedMedia, rec.Media...)
	}

	e.manifest = m
	e.setState(StateDone)

	logger.Info("crawl complete",
		"visited", m.VisitedCount,
		"succeeded", m.SuccessCount,
		"failed", m.FailedCount,
		"media", len(m.DownloadedMedia))
}

// Manifest returns the finalized run summary. It is valid once the
// results channel has closed.
func (e *Engine) Manifest() *Manifest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manifest
}
