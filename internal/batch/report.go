package batch

import (
	"errors"

	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/fetcher"
	"github.com/pfrederiksen/comp-scout/internal/scraper"
)

// ErrorEntry is one failure recorded in a report. URL is empty for
// failures that concern a whole site.
type ErrorEntry struct {
	Site  competition.Site `json:"site,omitempty"`
	URL   string           `json:"url,omitempty"`
	Error string           `json:"error"`
}

// ListingReport is the result of scraping listing pages.
type ListingReport struct {
	Competitions []*competition.Summary `json:"competitions"`
	ScrapeDate   competition.Date       `json:"scrape_date"`
	Errors       []ErrorEntry           `json:"errors"`
	Partial      bool                   `json:"partial"`
}

// DetailReport is the result of a detail batch. Details are in input
// order; every failed URL has an entry in Errors.
type DetailReport struct {
	Details    []*competition.Detail `json:"details"`
	ScrapeDate competition.Date      `json:"scrape_date"`
	Errors     []ErrorEntry          `json:"errors"`
	Partial    bool                  `json:"partial"`
}

// URLReport lists the competition URLs found per site.
type URLReport struct {
	URLs       map[competition.Site][]string `json:"urls"`
	ScrapeDate competition.Date              `json:"scrape_date"`
	Errors     []ErrorEntry                  `json:"errors"`
}

// errorEntry builds a report entry, taking the site and URL from the
// error itself when it carries them.
func errorEntry(err error, site competition.Site, url string) ErrorEntry {
	var fe *fetcher.FetchError
	var pe *scraper.ParseError
	switch {
	case errors.As(err, &fe):
		if fe.Site != "" {
			site = fe.Site
		}
		if fe.URL != "" {
			url = fe.URL
		}
	case errors.As(err, &pe):
		if pe.Site != "" {
			site = pe.Site
		}
		if pe.URL != "" {
			url = pe.URL
		}
	}
	return ErrorEntry{Site: site, URL: url, Error: err.Error()}
}
