package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/pfrederiksen/comp-scout/internal/logger"
)

// StaticFetcher issues a plain HTTP GET with no script execution. It suits
// server-rendered pages and tests; client-rendered listings need ChromeFetcher.
type StaticFetcher struct {
	timeout time.Duration
}

// NewStatic creates a StaticFetcher with a per-request timeout.
func NewStatic(timeout time.Duration) *StaticFetcher {
	return &StaticFetcher{timeout: timeout}
}

// Fetch returns the response body for a 2xx response.
func (f *StaticFetcher) Fetch(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// A fresh collector per request keeps cookie jars separate.
	c := colly.NewCollector(
		colly.UserAgent(RandomUserAgent()),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)

	var body string
	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	logger.Debug("Fetching page", logger.Fields{
		"url":  req.URL,
		"site": string(req.Site),
		"kind": string(req.Kind),
	})

	err := c.Visit(req.URL)
	if status >= http.StatusBadRequest {
		return "", statusError(req, status)
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", &FetchError{Site: req.Site, URL: req.URL, Kind: ErrTimeout, Err: ctx.Err()}
		}
		return "", AsFetchError(req, err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", statusError(req, status)
	}

	return body, nil
}
