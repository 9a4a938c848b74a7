package scraper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/comp-scout/internal/competition"
)

var (
	withinDaysPattern = regexp.MustCompile(`(?i)\bwithin\s+(\w+)\s+(?:\(\d+\)\s+)?(?:business\s+|working\s+)?days?\b`)
	daysAfterPattern  = regexp.MustCompile(`(?i)\b(\w+)\s+(?:business\s+|working\s+)?days?\s+(?:after|of|from|following)\b`)
)

type faqEntry struct {
	question string
	answer   string
}

// extractWinnerNotification reads FAQPage JSON-LD blocks. It returns nil
// when the page has no such block or none of its questions are about
// winner notification or selection, so an absent block never produces a
// record of empty fields.
func extractWinnerNotification(doc *goquery.Document, resolver competition.Resolver) *competition.WinnerNotification {
	var entries []faqEntry
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(sel.Text())), &data); err != nil {
			return
		}
		entries = append(entries, faqEntries(data)...)
	})

	var wn competition.WinnerNotification
	found := false
	for _, e := range entries {
		q := strings.ToLower(e.question)
		switch {
		case strings.Contains(q, "notified") || strings.Contains(q, "notification"):
			if wn.NotificationText != "" {
				continue
			}
			found = true
			wn.NotificationText = e.answer
			if d, ok := resolver.ResolveAbsolute(e.answer); ok {
				wn.NotificationDate = d.Ptr()
			}
			if n, ok := notificationDays(e.answer); ok {
				wn.NotificationDays = &n
			}
		case strings.Contains(q, "selected") || strings.Contains(q, "selection"):
			if wn.SelectionText != "" {
				continue
			}
			found = true
			wn.SelectionText = e.answer
			if d, ok := resolver.ResolveAbsolute(e.answer); ok {
				wn.SelectionDate = d.Ptr()
			}
		}
	}

	if !found {
		return nil
	}
	return &wn
}

func notificationDays(text string) (int, bool) {
	for _, p := range []*regexp.Regexp{withinDaysPattern, daysAfterPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, ok := competition.ParseCount(m[1]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// faqEntries walks decoded JSON-LD, which may be a single object, an array
// of objects, or an object with an @graph array.
func faqEntries(v interface{}) []faqEntry {
	switch node := v.(type) {
	case []interface{}:
		var out []faqEntry
		for _, item := range node {
			out = append(out, faqEntries(item)...)
		}
		return out
	case map[string]interface{}:
		if graph, ok := node["@graph"]; ok {
			return faqEntries(graph)
		}
		if !hasType(node, "FAQPage") {
			return nil
		}
		var out []faqEntry
		for _, q := range asList(node["mainEntity"]) {
			question, ok := q.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := question["name"].(string)
			for _, a := range asList(question["acceptedAnswer"]) {
				answer, ok := a.(map[string]interface{})
				if !ok {
					continue
				}
				text, _ := answer["text"].(string)
				if text = answerText(text); text != "" {
					out = append(out, faqEntry{question: collapse(name), answer: text})
					break
				}
			}
		}
		return out
	}
	return nil
}

func hasType(node map[string]interface{}, want string) bool {
	for _, t := range asList(node["@type"]) {
		if s, ok := t.(string); ok && s == want {
			return true
		}
	}
	return false
}

func asList(v interface{}) []interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return x
	default:
		return []interface{}{x}
	}
}

// answerText strips any markup from an FAQ answer.
func answerText(s string) string {
	if !strings.Contains(s, "<") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	return collapse(doc.Text())
}
