// Package fetcher retrieves page markup for the extractors.
//
// Two renderers are provided: ChromeFetcher drives headless Chrome through
// chromedp so client-side rendered listings are complete before the markup
// is captured, and StaticFetcher issues plain HTTP requests through colly.
// Retrying and Cache wrap any Fetcher. Every failure is reported as a
// *FetchError carrying the site, the URL and the failure kind; the caller
// decides whether to continue with partial results.
package fetcher

import (
	"context"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// Kind says which sort of page is being fetched. Listing pages are
// scrolled to trigger lazy loading; detail pages are not.
type Kind string

const (
	KindListing Kind = "listing"
	KindDetail  Kind = "detail"
)

// Request describes one page fetch.
type Request struct {
	URL  string
	Site competition.Site
	Kind Kind
	// WaitFor is a CSS selector that must be present before the page is
	// considered rendered. Empty means wait for the body only.
	WaitFor string
}

// Fetcher returns the rendered markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, req Request) (string, error)

// Fetch calls f(ctx, req).
func (f Func) Fetch(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
