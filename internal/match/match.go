// Package match classifies incoming competitions against records the
// caller already tracks.
package match

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// DefaultThreshold is the minimum title similarity for a duplicate.
const DefaultThreshold = 0.80

// Status is the outcome of classifying one competition.
type Status string

const (
	StatusNew       Status = "new"
	StatusDuplicate Status = "duplicate"
	StatusTracked   Status = "tracked"
)

// TrackedRecord is a previously persisted competition. A record merged
// from several sites carries one URL per source.
type TrackedRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	NormalizedTitle string    `json:"normalized_title,omitempty"`
	URLs            []string  `json:"urls"`
	CreatedAt       time.Time `json:"created_at"`
}

// Result is the classification of one competition. ExistingID is empty
// for StatusNew.
type Result struct {
	Status     Status  `json:"status"`
	ExistingID string  `json:"existing_id,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// Scorer returns a symmetric similarity in [0, 1] between two normalized
// titles.
type Scorer func(a, b string) float64

// Scorer names accepted by ScorerByName.
const (
	ScorerEdit     = "edit"
	ScorerTokenSet = "token-set"
)

// ScorerByName returns EditRatio for "edit" and TokenSetRatio for
// "token-set".
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ScorerEdit, "":
		return EditRatio, nil
	case ScorerTokenSet:
		return TokenSetRatio, nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (want %s or %s)", name, ScorerEdit, ScorerTokenSet)
	}
}

// Matcher holds the match parameters. The zero value uses
// DefaultThreshold and EditRatio.
type Matcher struct {
	Threshold float64
	Score     Scorer
}

// NewMatcher returns a Matcher with the given threshold and EditRatio.
func NewMatcher(threshold float64) Matcher {
	return Matcher{Threshold: threshold, Score: EditRatio}
}

func (m Matcher) threshold() float64 {
	if m.Threshold <= 0 {
		return DefaultThreshold
	}
	return m.Threshold
}

func (m Matcher) scorer() Scorer {
	if m.Score == nil {
		return EditRatio
	}
	return m.Score
}

// Classify matches incoming against existing. An exact URL match is
// Tracked regardless of title. Otherwise the best title score at or above
// the threshold is a Duplicate; equal scores go to the most recently
// created record, then to the earlier record in existing.
func (m Matcher) Classify(incoming *competition.Summary, existing []TrackedRecord) Result {
	url := strings.TrimSpace(incoming.URL)
	for _, rec := range existing {
		for _, u := range rec.URLs {
			if url != "" && strings.TrimSpace(u) == url {
				return Result{Status: StatusTracked, ExistingID: rec.ID}
			}
		}
	}

	title := incoming.NormalizedTitle
	if title == "" {
		title = competition.NormalizeTitle(incoming.Title)
	}
	if title == "" {
		return Result{Status: StatusNew}
	}

	score := m.scorer()
	threshold := m.threshold()
	best := -1
	var bestScore float64
	for i, rec := range existing {
		s := score(title, recordTitle(rec))
		if s < threshold {
			continue
		}
		if best < 0 || s > bestScore || (s == bestScore && rec.CreatedAt.After(existing[best].CreatedAt)) {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return Result{Status: StatusNew}
	}
	return Result{Status: StatusDuplicate, ExistingID: existing[best].ID, Score: bestScore}
}

func recordTitle(rec TrackedRecord) string {
	if rec.NormalizedTitle != "" {
		return rec.NormalizedTitle
	}
	return competition.NormalizeTitle(rec.Title)
}

// EditRatio is 1 minus the Levenshtein distance over the longer length,
// counted in runes.
func EditRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// TokenSetRatio compares the sets of words in two titles, so word order
// and repeated words do not matter. The shared words are compared against
// each side's full word set and the best EditRatio wins.
func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	var common, onlyA, onlyB []string
	for w := range setA {
		if setB[w] {
			common = append(common, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if !setA[w] {
			onlyB = append(onlyB, w)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := EditRatio(withA, withB)
	if base != "" {
		if r := EditRatio(base, withA); r > best {
			best = r
		}
		if r := EditRatio(base, withB); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

// Classification is one classified competition, carrying its URL so the
// caller can correlate it with the input.
type Classification struct {
	URL    string           `json:"url"`
	Site   competition.Site `json:"site"`
	Title  string           `json:"title"`
	Result Result           `json:"result"`
}

// ClassifyAll classifies each incoming competition independently against
// the same tracked set, in input order. Nil entries are skipped.
func (m Matcher) ClassifyAll(incoming []*competition.Summary, existing []TrackedRecord) []Classification {
	out := make([]Classification, 0, len(incoming))
	for _, s := range incoming {
		if s == nil {
			continue
		}
		out = append(out, Classification{
			URL:    s.URL,
			Site:   s.Site,
			Title:  s.Title,
			Result: m.Classify(s, existing),
		})
	}
	return out
}
