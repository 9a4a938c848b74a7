// Package filter narrows a listing down after extraction.
//
// Criteria combine with AND:
//   - Keywords (case-insensitive substring of title, brand or prize)
//   - Minimum prize value
//   - Closing within N days of the reference date
//   - Already-closed competitions are dropped unless IncludeClosed is set
//
// A competition whose prize value or closing date is unknown is never
// dropped by the criterion that needs it.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.MinPrize = 500
//	f.ClosingWithin = 14
//	kept := f.Apply(summaries, ref)
package filter

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// Filter represents listing filtering criteria
type Filter struct {
	Keywords []string `json:"keywords,omitempty"`

	// MinPrize drops competitions with a known prize value below it.
	MinPrize float64 `json:"min_prize,omitempty"`

	// ClosingWithin keeps competitions closing no more than this many days
	// after the reference date. Zero disables the check.
	ClosingWithin int `json:"closing_within,omitempty"`

	IncludeClosed bool `json:"include_closed,omitempty"`
}

// NewFilter creates a filter that only drops closed competitions.
func NewFilter() *Filter {
	return &Filter{Keywords: []string{}}
}

// IsEmpty reports whether the filter keeps every competition.
func (f *Filter) IsEmpty() bool {
	return len(f.Keywords) == 0 &&
		f.MinPrize == 0 &&
		f.ClosingWithin == 0 &&
		f.IncludeClosed
}

// Matches reports whether s passes every active criterion on ref.
func (f *Filter) Matches(s *competition.Summary, ref competition.Date) bool {
	if len(f.Keywords) > 0 {
		haystack := strings.ToLower(s.Title + " " + s.Brand + " " + s.PrizeSummary)
		matched := false
		for _, kw := range f.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MinPrize > 0 && s.PrizeValue != nil && *s.PrizeValue < f.MinPrize {
		return false
	}

	if s.ClosingDate != nil && !ref.IsZero() {
		closing := *s.ClosingDate
		if !f.IncludeClosed && closing.Before(ref) {
			return false
		}
		if f.ClosingWithin > 0 && ref.AddDays(f.ClosingWithin).Before(closing) {
			return false
		}
	}

	return true
}

// Apply returns the competitions that match, in their original order.
func (f *Filter) Apply(summaries []*competition.Summary, ref competition.Date) []*competition.Summary {
	if f.IsEmpty() {
		return summaries
	}

	filtered := make([]*competition.Summary, 0, len(summaries))
	for _, s := range summaries {
		if f.Matches(s, ref) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "Min prize: $500 | Closing within 14 days | Excluding closed"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if len(f.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("Keywords: %s", strings.Join(f.Keywords, ", ")))
	}

	if f.MinPrize > 0 {
		parts = append(parts, fmt.Sprintf("Min prize: $%.0f", f.MinPrize))
	}

	if f.ClosingWithin > 0 {
		parts = append(parts, fmt.Sprintf("Closing within %d days", f.ClosingWithin))
	}

	if !f.IncludeClosed {
		parts = append(parts, "Excluding closed")
	}

	return strings.Join(parts, " | ")
}
