package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/pfrederiksen/comp-scout/internal/logger"
)

const scrollScript = `window.scrollTo(0, document.body.scrollHeight); document.body.scrollHeight`

// ChromeOptions configures the headless browser renderer.
type ChromeOptions struct {
	// Timeout bounds one fetch, navigation through capture.
	Timeout time.Duration
	// RenderWait is slept after the wait selector appears.
	RenderWait time.Duration
	// ScrollCount and ScrollDelay drive lazy loading on listing pages.
	ScrollCount int
	ScrollDelay time.Duration
	Headless    bool
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup.
	ExecPath string
}

// ChromeFetcher renders pages in headless Chrome. One browser process is
// shared; every Fetch runs in its own incognito browser context so cookies
// and navigation state never leak between concurrent fetches.
type ChromeFetcher struct {
	opts          ChromeOptions
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

// NewChrome starts the browser.
func NewChrome(opts ChromeOptions) (*ChromeFetcher, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty run launches the browser so later fetches can open tabs on it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return &ChromeFetcher{
		opts:          opts,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}, nil
}

// Fetch navigates to req.URL, waits for client-side rendering and returns
// the document's outer HTML.
func (f *ChromeFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", AsFetchError(req, err)
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx, chromedp.WithNewBrowserContext())
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancelRun()

	// The tab hangs off the browser, not the caller, so propagate the
	// caller's cancellation by hand.
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	waitFor := req.WaitFor
	if waitFor == "" {
		waitFor = "body"
	}

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(RandomUserAgent()).Do(ctx)
		}),
		chromedp.Navigate(req.URL),
		chromedp.WaitReady(waitFor, chromedp.ByQuery),
		chromedp.Sleep(f.opts.RenderWait),
	}
	if req.Kind == KindListing {
		for i := 0; i < f.opts.ScrollCount; i++ {
			var height int
			actions = append(actions,
				chromedp.Evaluate(scrollScript, &height),
				chromedp.Sleep(f.opts.ScrollDelay),
			)
		}
	}
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	logger.Debug("Rendering page", logger.Fields{
		"url":  req.URL,
		"site": string(req.Site),
		"kind": string(req.Kind),
	})

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if runCtx.Err() != nil {
			return "", &FetchError{Site: req.Site, URL: req.URL, Kind: ErrTimeout, Err: runCtx.Err()}
		}
		return "", AsFetchError(req, err)
	}

	return html, nil
}

// Close shuts the browser down.
func (f *ChromeFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}
