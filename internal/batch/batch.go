// Package batch runs the fetch and extract pipeline over sites and URL
// lists. One failing site or URL never stops the others; every failure is
// recorded in the report next to the records that did succeed.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/fetcher"
	"github.com/pfrederiksen/comp-scout/internal/logger"
	"github.com/pfrederiksen/comp-scout/internal/scraper"
	"github.com/pfrederiksen/comp-scout/internal/site"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSitesReachable is returned with the report when every
	// requested listing page failed to load.
	ErrNoSitesReachable = errors.New("no sites reachable")
	// ErrUnsupportedSite means no configured site serves the URL.
	ErrUnsupportedSite = errors.New("unsupported site")
	// ErrNoURLs means a batch was requested with nothing to fetch.
	ErrNoURLs = errors.New("no urls to fetch")
)

// Options controls scheduling.
type Options struct {
	// Workers bounds concurrent detail fetches.
	Workers int
	// Deadline bounds a whole operation. Fetches still running when it
	// passes are abandoned and reported as timeouts.
	Deadline time.Duration
	// RateLimit is the pause between consecutive fetches by one worker.
	RateLimit time.Duration
	// Now stamps scrape_date on reports and scraped_at on details.
	Now func() time.Time
	// Progress receives human-readable progress lines. Nil discards them.
	Progress io.Writer
}

// Orchestrator runs listing and detail operations.
type Orchestrator struct {
	fetcher fetcher.Fetcher
	sites   *site.Registry
	opts    Options

	progressMu sync.Mutex
}

// New creates an Orchestrator.
func New(f fetcher.Fetcher, sites *site.Registry, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Orchestrator{fetcher: f, sites: sites, opts: opts}
}

func (o *Orchestrator) progress(format string, args ...interface{}) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	fmt.Fprintf(o.opts.Progress, format+"\n", args...)
}

func (o *Orchestrator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.Deadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.opts.Deadline)
}

// fetch runs one fetch and gives up as soon as ctx is done, even if the
// underlying fetcher does not.
func (o *Orchestrator) fetch(ctx context.Context, req fetcher.Request) (string, error) {
	type result struct {
		body string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := o.fetcher.Fetch(ctx, req)
		done <- result{body, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fetcher.AsFetchError(req, r.err)
		}
		return r.body, nil
	case <-ctx.Done():
		return "", fetcher.AsFetchError(req, ctx.Err())
	}
}

func (o *Orchestrator) selectSites(names []competition.Site) ([]site.Config, error) {
	if len(names) == 0 {
		return o.sites.All(), nil
	}
	configs := make([]site.Config, 0, len(names))
	for _, name := range names {
		cfg, ok := o.sites.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown site: %s", name)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

type siteResult struct {
	summaries []*competition.Summary
	errors    []ErrorEntry
	failed    bool
}

// Listings scrapes the listing page of each named site (all sites when
// names is empty) concurrently. Records keep site order, then page order.
// Records are never merged across sites. When every site fails the
// report is still returned, together with ErrNoSitesReachable.
func (o *Orchestrator) Listings(ctx context.Context, names []competition.Site, ref competition.Date) (*ListingReport, error) {
	configs, err := o.selectSites(names)
	if err != nil {
		return nil, err
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	results := make([]siteResult, len(configs))
	var g errgroup.Group
	for i, cfg := range configs {
		g.Go(func() error {
			results[i] = o.scrapeSite(ctx, cfg, ref)
			return nil
		})
	}
	_ = g.Wait()

	report := &ListingReport{
		Competitions: []*competition.Summary{},
		ScrapeDate:   o.scrapeDate(),
		Errors:       []ErrorEntry{},
	}
	failed := 0
	for _, r := range results {
		report.Competitions = append(report.Competitions, r.summaries...)
		report.Errors = append(report.Errors, r.errors...)
		if r.failed {
			failed++
		}
	}
	report.Partial = len(report.Errors) > 0

	logger.Info("Listing scrape finished", logger.Fields{
		"sites":        len(configs),
		"failed_sites": failed,
		"competitions": len(report.Competitions),
		"errors":       len(report.Errors),
	})

	if len(configs) > 0 && failed == len(configs) {
		return report, ErrNoSitesReachable
	}
	return report, nil
}

func (o *Orchestrator) scrapeDate() competition.Date {
	return competition.DateOf(o.opts.Now())
}

func (o *Orchestrator) fetchListing(ctx context.Context, cfg site.Config) (string, error) {
	o.progress("Scraping %s...", cfg.Name)
	req := fetcher.Request{URL: cfg.ListingURL, Site: cfg.Name, Kind: fetcher.KindListing, WaitFor: cfg.WaitFor}
	body, err := o.fetch(ctx, req)
	if err != nil {
		logger.Error("Listing fetch failed", logger.Fields{"site": string(cfg.Name), "url": cfg.ListingURL}, err)
		return "", err
	}
	return body, nil
}

func (o *Orchestrator) scrapeSite(ctx context.Context, cfg site.Config, ref competition.Date) siteResult {
	body, err := o.fetchListing(ctx, cfg)
	if err != nil {
		return siteResult{errors: []ErrorEntry{errorEntry(err, cfg.Name, "")}, failed: true}
	}

	summaries, errs := scraper.ExtractListing(cfg, body, ref)
	r := siteResult{summaries: summaries}
	for _, e := range errs {
		r.errors = append(r.errors, errorEntry(e, cfg.Name, ""))
	}
	o.progress("  Found %d competitions on %s", len(summaries), cfg.Name)
	return r
}

// URLs lists the detail link of every card on each site's listing page,
// including cards whose fields would not extract. Every requested site has
// an entry, empty when its page failed.
func (o *Orchestrator) URLs(ctx context.Context, names []competition.Site) (*URLReport, error) {
	configs, err := o.selectSites(names)
	if err != nil {
		return nil, err
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	type siteLinks struct {
		links []string
		err   *ErrorEntry
	}
	results := make([]siteLinks, len(configs))
	var g errgroup.Group
	for i, cfg := range configs {
		g.Go(func() error {
			body, err := o.fetchListing(ctx, cfg)
			if err == nil {
				results[i].links, err = scraper.ListingLinks(cfg, body)
			}
			if err != nil {
				entry := errorEntry(err, cfg.Name, "")
				results[i].err = &entry
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &URLReport{
		URLs:       make(map[competition.Site][]string, len(configs)),
		ScrapeDate: o.scrapeDate(),
		Errors:     []ErrorEntry{},
	}
	failed := 0
	for i, cfg := range configs {
		r := results[i]
		report.URLs[cfg.Name] = []string{}
		if r.err != nil {
			report.Errors = append(report.Errors, *r.err)
			failed++
			continue
		}
		report.URLs[cfg.Name] = r.links
		o.progress("  Found %d links on %s", len(r.links), cfg.Name)
	}

	if len(configs) > 0 && failed == len(configs) {
		return report, ErrNoSitesReachable
	}
	return report, nil
}

// Detail fetches and extracts one competition page.
func (o *Orchestrator) Detail(ctx context.Context, rawURL string, ref competition.Date) (*competition.Detail, error) {
	ctx, cancel := o.withDeadline(ctx)
	defer cancel()
	return o.detail(ctx, strings.TrimSpace(rawURL), ref)
}

func (o *Orchestrator) detail(ctx context.Context, rawURL string, ref competition.Date) (*competition.Detail, error) {
	cfg, ok := o.sites.ForURL(rawURL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSite, rawURL)
	}

	req := fetcher.Request{URL: rawURL, Site: cfg.Name, Kind: fetcher.KindDetail}
	body, err := o.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return scraper.ExtractDetail(cfg, rawURL, body, ref, o.opts.Now().UTC())
}

type detailResult struct {
	detail   *competition.Detail
	err      *ErrorEntry
	timedOut bool
}

// DetailsBatch extracts every URL with at most Workers fetches in flight.
// Duplicate and blank URLs are dropped first. URLs not started or not
// finished by the deadline are reported as timeouts.
func (o *Orchestrator) DetailsBatch(ctx context.Context, urls []string, ref competition.Date) (*DetailReport, error) {
	urls = dedupe(urls)
	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	ctx, cancel := o.withDeadline(ctx)
	defer cancel()

	jobs := make(chan int, len(urls))
	for i := range urls {
		jobs <- i
	}
	close(jobs)

	results := make([]detailResult, len(urls))
	var started atomic.Int32

	workers := min(o.opts.Workers, len(urls))
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			first := true
			for i := range jobs {
				rawURL := urls[i]
				if !first && !o.pause(ctx) {
					results[i] = o.failed(rawURL, o.timeout(ctx, rawURL))
					continue
				}
				first = false
				if ctx.Err() != nil {
					results[i] = o.failed(rawURL, o.timeout(ctx, rawURL))
					continue
				}

				n := started.Add(1)
				o.progress("Fetching (%d/%d): %s", n, len(urls), rawURL)
				d, err := o.detail(ctx, rawURL, ref)
				if err != nil {
					results[i] = o.failed(rawURL, err)
					continue
				}
				results[i] = detailResult{detail: d}
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &DetailReport{
		Details:    []*competition.Detail{},
		ScrapeDate: o.scrapeDate(),
		Errors:     []ErrorEntry{},
	}
	timeouts := 0
	for _, r := range results {
		if r.err != nil {
			report.Errors = append(report.Errors, *r.err)
			if r.timedOut {
				timeouts++
			}
			continue
		}
		report.Details = append(report.Details, r.detail)
	}
	report.Partial = len(report.Errors) > 0

	logger.Info("Detail batch finished", logger.Fields{
		"urls":     len(urls),
		"details":  len(report.Details),
		"errors":   len(report.Errors),
		"timeouts": timeouts,
	})
	return report, nil
}

// pause waits out the rate limit, returning false if ctx ends first.
func (o *Orchestrator) pause(ctx context.Context) bool {
	if o.opts.RateLimit <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(o.opts.RateLimit)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) timeout(ctx context.Context, rawURL string) error {
	req := fetcher.Request{URL: rawURL, Kind: fetcher.KindDetail}
	if cfg, ok := o.sites.ForURL(rawURL); ok {
		req.Site = cfg.Name
	}
	err := ctx.Err()
	if err == nil {
		err = context.DeadlineExceeded
	}
	return fetcher.AsFetchError(req, err)
}

func (o *Orchestrator) failed(rawURL string, err error) detailResult {
	timedOut := fetcher.IsTimeout(err)
	if timedOut {
		logger.IncrCounter("batch.timeout")
	}
	logger.Warn("Detail extraction failed", logger.Fields{"url": rawURL, "error": err.Error(), "timeout": timedOut})
	entry := errorEntry(err, hostSite(rawURL), rawURL)
	return detailResult{err: &entry, timedOut: timedOut}
}

// hostSite names an unmatched URL by its lowercased host.
func hostSite(rawURL string) competition.Site {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return competition.Site(strings.ToLower(u.Hostname()))
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
