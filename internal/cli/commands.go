package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/batch"
	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/filter"
	"github.com/pfrederiksen/comp-scout/internal/match"
	"github.com/pfrederiksen/comp-scout/internal/scraper"
	"github.com/pfrederiksen/comp-scout/internal/site"
	"github.com/pfrederiksen/comp-scout/internal/storage"
	"github.com/spf13/cobra"
)

// listingFlags are shared by listings and urls.
type listingFlags struct {
	sites         string
	keywords      []string
	minPrize      float64
	closingWithin string
	includeClosed bool
	sortOrder     string
	format        string
}

func (f *listingFlags) bindSites(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sites, "site", "", "Comma-separated sites to scrape (default all)")
}

func (f *listingFlags) bindFilters(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.keywords, "keyword", nil, "Keep competitions mentioning any keyword in title, brand or prize")
	cmd.Flags().Float64Var(&f.minPrize, "min-prize", 0, "Drop competitions with a known prize value below this")
	cmd.Flags().StringVar(&f.closingWithin, "closing-within", "", "Keep competitions closing within this window, e.g. 14 or 2w")
	cmd.Flags().BoolVar(&f.includeClosed, "include-closed", false, "Keep competitions whose closing date has passed")
	cmd.Flags().StringVar(&f.sortOrder, "sort", "", "Sort by: closing, prize or title (default page order)")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json, text or ics")
}

func (f *listingFlags) siteNames(sites *site.Registry) ([]competition.Site, error) {
	return filter.ParseSites(f.sites, sites.Names())
}

func (f *listingFlags) filter() (*filter.Filter, error) {
	flt := filter.NewFilter()
	flt.Keywords = f.keywords
	flt.MinPrize = f.minPrize
	flt.IncludeClosed = f.includeClosed
	if f.closingWithin != "" {
		days, err := filter.ParseWindow(f.closingWithin)
		if err != nil {
			return nil, err
		}
		flt.ClosingWithin = days
	}
	return flt, nil
}

func (a *app) newListingsCmd() *cobra.Command {
	var f listingFlags
	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Scrape competition summaries from every site's listing page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := OutputFormat(strings.ToLower(f.format))
			if format != FormatText && format != FormatJSON && format != FormatICS {
				return fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", f.format)
			}
			order, err := parseSortOrder(f.sortOrder)
			if err != nil {
				return err
			}
			flt, err := f.filter()
			if err != nil {
				return err
			}
			ref, err := a.referenceDate()
			if err != nil {
				return err
			}
			sites, err := a.registry()
			if err != nil {
				return err
			}
			names, err := f.siteNames(sites)
			if err != nil {
				return err
			}

			o, closeFn, err := a.orchestrator(sites)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := o.Listings(cmd.Context(), names, ref)
			if err != nil {
				if report != nil {
					return &commandError{err: err, entries: report.Errors}
				}
				return err
			}

			fmt.Fprintf(a.env.Stderr, "Filters: %s\n", flt)
			report.Competitions = flt.Apply(report.Competitions, ref)
			sortSummaries(report.Competitions, order)
			return writeListing(a.env.Stdout, report, format, a.flagVerbose, a.env.Now())
		},
	}
	f.bindSites(cmd)
	f.bindFilters(cmd)
	return cmd
}

func (a *app) newURLsCmd() *cobra.Command {
	var f listingFlags
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "List competition URLs per site without extracting details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.referenceDate(); err != nil {
				return err
			}
			sites, err := a.registry()
			if err != nil {
				return err
			}
			names, err := f.siteNames(sites)
			if err != nil {
				return err
			}

			o, closeFn, err := a.orchestrator(sites)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := o.URLs(cmd.Context(), names)
			if err != nil {
				if report != nil {
					return &commandError{err: err, entries: report.Errors}
				}
				return err
			}
			return writeJSON(a.env.Stdout, report)
		},
	}
	f.bindSites(cmd)
	return cmd
}

func (a *app) newDetailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail URL",
		Short: "Extract the full record of one competition page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.referenceDate()
			if err != nil {
				return err
			}
			sites, err := a.registry()
			if err != nil {
				return err
			}

			o, closeFn, err := a.orchestrator(sites)
			if err != nil {
				return err
			}
			defer closeFn()

			rawURL := strings.TrimSpace(args[0])
			d, err := o.Detail(cmd.Context(), rawURL, ref)
			if err != nil {
				entry := batch.ErrorEntry{URL: rawURL, Error: err.Error()}
				var pe *scraper.ParseError
				if errors.As(err, &pe) {
					entry.Site = pe.Site
				} else if cfg, ok := sites.ForURL(rawURL); ok {
					entry.Site = cfg.Name
				}
				return &commandError{err: err, entries: []batch.ErrorEntry{entry}}
			}
			return writeJSON(a.env.Stdout, d)
		},
	}
}

// batchInput is the details-batch stdin document.
type batchInput struct {
	URLs []string `json:"urls"`
}

func (a *app) newDetailsBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "details-batch",
		Short: `Extract every URL from a {"urls": [...]} document on stdin`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in batchInput
			if err := decodeStdin(a.env.Stdin, &in); err != nil {
				return err
			}
			if len(in.URLs) == 0 {
				return fmt.Errorf("input has no urls")
			}

			ref, err := a.referenceDate()
			if err != nil {
				return err
			}
			sites, err := a.registry()
			if err != nil {
				return err
			}

			o, closeFn, err := a.orchestrator(sites)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := o.DetailsBatch(cmd.Context(), in.URLs, ref)
			if err != nil {
				return err
			}
			return writeJSON(a.env.Stdout, report)
		},
	}
}

// classifyInput accepts a listing report or any document with a
// competitions list.
type classifyInput struct {
	Competitions []*competition.Summary `json:"competitions"`
}

type classifyOutput struct {
	Classifications []match.Classification `json:"classifications"`
}

func (a *app) newClassifyCmd() *cobra.Command {
	var trackedPath string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify competitions on stdin as new, duplicate or tracked",
		Long: `Reads a listing report ({"competitions": [...]}) on stdin and compares
each competition with the tracked records in --tracked. No page is
fetched and the tracked file is never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trackedPath == "" {
				return fmt.Errorf("--tracked is required")
			}
			tracked, err := storage.LoadTracked(trackedPath)
			if err != nil {
				return err
			}

			var in classifyInput
			if err := decodeStdin(a.env.Stdin, &in); err != nil {
				return err
			}
			for i, c := range in.Competitions {
				if c == nil {
					return fmt.Errorf("competition %d is null", i)
				}
				if c.NormalizedTitle == "" {
					c.NormalizedTitle = competition.NormalizeTitle(c.Title)
				}
			}

			score, err := match.ScorerByName(a.cfg.Scorer)
			if err != nil {
				return err
			}
			m := match.Matcher{Threshold: a.cfg.Threshold, Score: score}
			out := classifyOutput{Classifications: m.ClassifyAll(in.Competitions, tracked)}
			return writeJSON(a.env.Stdout, out)
		},
	}
	cmd.Flags().StringVar(&trackedPath, "tracked", "", "JSON file of tracked records (required)")
	cmd.Flags().StringVar(&a.cfg.Scorer, "scorer", a.cfg.Scorer, "Title similarity: edit or token-set")
	return cmd
}

func decodeStdin(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("no input on stdin")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing stdin: %w", err)
	}
	return nil
}
