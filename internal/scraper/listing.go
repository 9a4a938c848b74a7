package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/logger"
	"github.com/pfrederiksen/comp-scout/internal/site"
)

// maxContainerClimb bounds the ancestor walk from a link to its card.
const maxContainerClimb = 5

// card is one discovered competition card and its detail link.
type card struct {
	sel  *goquery.Selection
	href string
}

// listingFields holds the ordered strategies for every Summary field.
type listingFields struct {
	title        []strategy[string]
	prizeSummary []strategy[string]
	prizeValue   []strategy[float64]
	closing      []strategy[competition.Date]
	brand        []strategy[string]
}

func newListingFields(cfg site.Config) listingFields {
	sel := cfg.Listing
	return listingFields{
		title: []strategy[string]{
			{"selector", selectorText(sel.Title)},
			{"win-line", winLine},
			{"link-title", attrValue(sel.Link, "title")},
		},
		prizeSummary: []strategy[string]{
			{"badge", selectorText(sel.Prize)},
			{"prize-value-label", prizeLabel},
			{"valued-at", valuedAt},
		},
		prizeValue: []strategy[float64]{
			{"badge", amount(selectorText(sel.Prize))},
			{"prize-value-label", amount(prizeLabel)},
			{"valued-at", amount(valuedAt)},
		},
		closing: []strategy[competition.Date]{
			{"selector", closingSelector(sel.Closing)},
			{"closing-line", closingLine},
			{"days-left", daysLeft},
		},
		brand: []strategy[string]{
			{"selector", selectorText(sel.Brand)},
			{"logo-alt", logoAlt(sel.Logo)},
			{"attribution", attribution},
		},
	}
}

// ExtractListing parses a listing page into Summaries. Cards without a
// detail link are not competitions and are skipped silently; a card with a
// link but no title is dropped and reported as a *ParseError. Each URL
// appears at most once. The ref date anchors relative closing dates such as
// "3 days left".
func ExtractListing(cfg site.Config, body string, ref competition.Date) ([]*competition.Summary, []error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, []error{fmt.Errorf("parsing HTML: %w", err)}
	}

	base, _ := url.Parse(cfg.ListingURL)
	fields := newListingFields(cfg)
	resolver := cfg.Resolver()

	var summaries []*competition.Summary
	var errs []error
	seen := make(map[string]bool)
	log := logger.Default().With(logger.Fields{"site": string(cfg.Name)})

	for _, c := range findCards(doc, cfg, base) {
		if seen[c.href] {
			continue
		}
		seen[c.href] = true

		s := newScope(c.sel, blockText(c.sel.Nodes...), resolver, ref, base)
		summary, err := extractSummary(cfg, fields, s, c.href)
		if err != nil {
			logger.IncrCounter("extract.dropped")
			log.Warn("Dropping listing card", logger.Fields{"url": c.href})
			errs = append(errs, err)
			continue
		}
		summaries = append(summaries, summary)
	}

	log.Debug("Extracted listing", logger.Fields{
		"competitions": len(summaries),
		"dropped":      len(errs),
	})

	return summaries, errs
}

// ListingLinks returns the detail link of every card on a listing page in
// page order, without extracting fields. Cards that ExtractListing would
// drop for a missing title are still listed.
func ListingLinks(cfg site.Config, body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, _ := url.Parse(cfg.ListingURL)
	links := []string{}
	seen := make(map[string]bool)
	for _, c := range findCards(doc, cfg, base) {
		if seen[c.href] {
			continue
		}
		seen[c.href] = true
		links = append(links, c.href)
	}
	return links, nil
}

func extractSummary(cfg site.Config, f listingFields, s *scope, href string) (*competition.Summary, error) {
	title, ok := firstOf(s, f.title)
	if !ok {
		return nil, &ParseError{Site: cfg.Name, URL: href, Field: "title"}
	}

	summary := competition.NewSummary(cfg.Name, href, title)
	if prize, ok := firstOf(s, f.prizeSummary); ok {
		summary.PrizeSummary = prize
	}
	if v, ok := firstOf(s, f.prizeValue); ok {
		summary.PrizeValue = &v
	}
	if d, ok := firstOf(s, f.closing); ok {
		summary.ClosingDate = d.Ptr()
	}
	if brand, ok := firstOf(s, f.brand); ok {
		summary.Brand = brand
	}
	return summary, nil
}

// findCards discovers card containers. With a card selector, each match is
// a card; otherwise cards are found by climbing from each detail link to
// the nearest ancestor holding the site's container text.
func findCards(doc *goquery.Document, cfg site.Config, base *url.URL) []card {
	sel := cfg.Listing
	var cards []card

	keep := func(container *goquery.Selection) bool {
		if sel.Skip != "" && container.Find(sel.Skip).Length() > 0 {
			return false
		}
		if sel.RequireText != "" {
			text := strings.ToLower(blockText(container.Nodes...))
			if !strings.Contains(text, strings.ToLower(sel.RequireText)) {
				return false
			}
		}
		return true
	}

	if sel.Card != "" {
		doc.Find(sel.Card).Each(func(_ int, container *goquery.Selection) {
			if !keep(container) {
				return
			}
			link := container.Find(sel.Link).First()
			href, ok := resolveHref(base, link.AttrOr("href", ""))
			if !ok {
				return
			}
			cards = append(cards, card{sel: container, href: href})
		})
		return cards
	}

	doc.Find(sel.Link).Each(func(_ int, link *goquery.Selection) {
		href, ok := resolveHref(base, link.AttrOr("href", ""))
		if !ok {
			return
		}
		container := climbToContainer(link, sel.Link, sel.ContainerText, base)
		if container == nil || !keep(container) {
			return
		}
		cards = append(cards, card{sel: container, href: href})
	})
	return cards
}

// climbToContainer walks up from link to the first ancestor containing
// marker. The walk stops at an ancestor that links to more than one
// competition, since that holds several cards rather than one.
func climbToContainer(link *goquery.Selection, linkSelector, marker string, base *url.URL) *goquery.Selection {
	container := link.Parent()
	for i := 0; i < maxContainerClimb && container.Length() > 0; i++ {
		if distinctLinks(container, linkSelector, base) > 1 {
			return nil
		}
		if marker == "" || strings.Contains(blockText(container.Nodes...), marker) {
			return container
		}
		container = container.Parent()
	}
	return nil
}

func distinctLinks(container *goquery.Selection, linkSelector string, base *url.URL) int {
	hrefs := make(map[string]bool)
	container.Find(linkSelector).Each(func(_ int, a *goquery.Selection) {
		if href, ok := resolveHref(base, a.AttrOr("href", "")); ok {
			hrefs[href] = true
		}
	})
	return len(hrefs)
}
