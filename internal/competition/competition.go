package competition

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Site identifies one of the known competition sources.
type Site string

const (
	SiteCompetitionsComAu Site = "competitions.com.au"
	SiteNetRewards        Site = "netrewards.com.au"
)

const (
	// UnknownBrand is used when no brand signal is found on a page.
	UnknownBrand = "Unknown"
	// DefaultWordLimit applies when a page declares no word count.
	DefaultWordLimit = 25
)

// Summary is the lightweight record extracted from a listing page.
type Summary struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Site            Site     `json:"site"`
	Title           string   `json:"title"`
	NormalizedTitle string   `json:"normalized_title"`
	Brand           string   `json:"brand"`
	PrizeSummary    string   `json:"prize_summary"`
	PrizeValue      *float64 `json:"prize_value,omitempty"`
	ClosingDate     *Date    `json:"closing_date,omitempty"`
}

// Detail is the full record extracted from a single competition page.
// Records from different sites are never merged into one Detail.
type Detail struct {
	Summary
	Prompt             string              `json:"prompt"`
	WordLimit          int                 `json:"word_limit"`
	EntryMethod        string              `json:"entry_method,omitempty"`
	WinnerNotification *WinnerNotification `json:"winner_notification,omitempty"`
	ScrapedAt          time.Time           `json:"scraped_at"`
}

// WinnerNotification is drawn from a page's structured FAQ data. A page
// without that data has no WinnerNotification at all.
type WinnerNotification struct {
	NotificationText string `json:"notification_text,omitempty"`
	NotificationDate *Date  `json:"notification_date,omitempty"`
	NotificationDays *int   `json:"notification_days,omitempty"`
	SelectionText    string `json:"selection_text,omitempty"`
	SelectionDate    *Date  `json:"selection_date,omitempty"`
}

// GenerateID creates a deterministic ID for a record from its site and URL.
func GenerateID(site Site, url string) string {
	h := sha1.New()
	h.Write([]byte(string(site) + "|" + strings.TrimSpace(url)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewSummary creates a Summary with ID, NormalizedTitle and the brand
// sentinel populated.
func NewSummary(site Site, url, title string) *Summary {
	title = strings.Join(strings.Fields(title), " ")
	return &Summary{
		ID:              GenerateID(site, url),
		URL:             url,
		Site:            site,
		Title:           title,
		NormalizedTitle: NormalizeTitle(title),
		Brand:           UnknownBrand,
	}
}

// NewDetail creates a Detail around a fresh Summary with the default word limit.
func NewDetail(site Site, url, title string, scrapedAt time.Time) *Detail {
	return &Detail{
		Summary:   *NewSummary(site, url, title),
		WordLimit: DefaultWordLimit,
		ScrapedAt: scrapedAt,
	}
}
