// Package scraper turns fetched listing and detail pages into competition records.
//
// Extraction is driven by a site.Config rather than per-site code. Each
// record field has an ordered list of strategies (a CSS selector, then
// progressively looser text patterns) and the first strategy that finds
// its signal wins. Cards are located by structural anchors: a card
// selector where the site has one, otherwise by climbing from each detail
// link to the ancestor that holds the card's text.
//
// Detail pages also yield a winner-notification record from FAQPage
// JSON-LD when the page embeds it. Dates are resolved against an explicit
// reference date supplied by the caller; nothing here reads the clock.
package scraper
