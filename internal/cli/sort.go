package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone    SortOrder = ""
	SortClosing SortOrder = "closing"
	SortPrize   SortOrder = "prize"
	SortTitle   SortOrder = "title"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortClosing, SortPrize, SortTitle:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'closing', 'prize' or 'title')", s)
	}
}

// sortSummaries sorts competitions in place. SortNone keeps site and page
// order. Sorting is stable so equal keys keep that order too.
func sortSummaries(summaries []*competition.Summary, order SortOrder) {
	switch order {
	case SortClosing:
		sort.SliceStable(summaries, func(i, j int) bool {
			return compareByClosing(summaries[i], summaries[j])
		})
	case SortPrize:
		sort.SliceStable(summaries, func(i, j int) bool {
			pi, pj := summaries[i].PrizeValue, summaries[j].PrizeValue
			if pi != nil && pj != nil && *pi != *pj {
				return *pi > *pj
			}
			// Known values before unknown ones
			if (pi == nil) != (pj == nil) {
				return pi != nil
			}
			return compareByClosing(summaries[i], summaries[j])
		})
	case SortTitle:
		sort.SliceStable(summaries, func(i, j int) bool {
			ti, tj := strings.ToLower(summaries[i].Title), strings.ToLower(summaries[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByClosing(summaries[i], summaries[j])
		})
	}
}

// compareByClosing reports whether i closes before j. Competitions with
// no closing date sort last.
func compareByClosing(i, j *competition.Summary) bool {
	if i.ClosingDate != nil && j.ClosingDate != nil {
		return i.ClosingDate.Before(*j.ClosingDate)
	}
	return i.ClosingDate != nil && j.ClosingDate == nil
}
