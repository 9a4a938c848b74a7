package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/batch"
	"github.com/pfrederiksen/comp-scout/internal/calendar"
	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// errorPayload is written to stdout when a command fails.
type errorPayload struct {
	Error  string             `json:"error"`
	Errors []batch.ErrorEntry `json:"errors"`
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeError(w io.Writer, err error, entries []batch.ErrorEntry) error {
	if entries == nil {
		entries = []batch.ErrorEntry{}
	}
	return writeJSON(w, errorPayload{Error: err.Error(), Errors: entries})
}

// writeListing writes a listing report in the specified format. stamp is
// only used by the ics format.
func writeListing(w io.Writer, report *batch.ListingReport, format OutputFormat, verbose bool, stamp time.Time) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeListingText(w, report, verbose)
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(report.Competitions, stamp))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeListingText outputs a listing as human-readable text, grouped by
// site in report order.
func writeListingText(w io.Writer, report *batch.ListingReport, verbose bool) error {
	if len(report.Competitions) == 0 {
		fmt.Fprintln(w, "No competitions found.")
	}

	var sites []competition.Site
	bySite := make(map[competition.Site][]*competition.Summary)
	for _, c := range report.Competitions {
		if _, ok := bySite[c.Site]; !ok {
			sites = append(sites, c.Site)
		}
		bySite[c.Site] = append(bySite[c.Site], c)
	}

	for _, s := range sites {
		comps := bySite[s]
		fmt.Fprintf(w, "\n%s (%d competitions):\n", s, len(comps))
		for _, c := range comps {
			fmt.Fprintf(w, "  %s\n", c.Title)
			if c.PrizeSummary != "" {
				fmt.Fprintf(w, "       Prize: %s\n", c.PrizeSummary)
			}
			if c.ClosingDate != nil {
				fmt.Fprintf(w, "       Closes: %s\n", c.ClosingDate)
			}
			if verbose {
				fmt.Fprintf(w, "       Brand: %s\n", c.Brand)
				fmt.Fprintf(w, "       URL: %s\n", c.URL)
			}
		}
	}

	if len(report.Competitions) > 0 {
		fmt.Fprintf(w, "\nTotal: %d competitions across %d sites\n", len(report.Competitions), len(sites))
	}
	for _, e := range report.Errors {
		fmt.Fprintf(w, "Error (%s): %s\n", e.Site, e.Error)
	}
	return nil
}
