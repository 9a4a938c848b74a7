package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// scope is the part of a page one record is extracted from: a listing
// card or a whole detail page.
type scope struct {
	sel      *goquery.Selection
	text     string
	lines    []string
	resolver competition.Resolver
	ref      competition.Date
	base     *url.URL
	// title is set once the record's title is known.
	title string
}

func newScope(sel *goquery.Selection, text string, resolver competition.Resolver, ref competition.Date, base *url.URL) *scope {
	return &scope{
		sel:      sel,
		text:     text,
		lines:    splitLines(text),
		resolver: resolver,
		ref:      ref,
		base:     base,
	}
}

// strategy extracts one field. Strategies for a field are tried in order
// and the first one that reports ok wins; each can be tested on its own.
type strategy[T any] struct {
	name string
	try  func(s *scope) (T, bool)
}

func firstOf[T any](s *scope, strategies []strategy[T]) (T, bool) {
	for _, st := range strategies {
		if v, ok := st.try(s); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

var (
	winLinePattern    = regexp.MustCompile(`(?i)^win\s+\S`)
	prizeLabelPattern = regexp.MustCompile(`(?i)prize\s+value\s*:?\s*\$\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	valuedAtPattern   = regexp.MustCompile(`(?i)(?:valued\s+at|worth|total\s+prize(?:\s+pool)?(?:\s+of)?|prize\s+pool(?:\s+of)?)\s*:?\s*(?:up\s+to\s+|over\s+)?\$\s*(\d[\d,]*(?:\.\d{1,2})?)`)
	closingPattern    = regexp.MustCompile(`(?i)\b(?:entries\s+close|closing\s+date|closing|closes?|ends?)\b\s*:?\s*(.*)$`)
	daysLeftPattern   = regexp.MustCompile(`(?i)\b\d+\s+days?\s+(?:left|remaining|to\s+go)\b`)
	attributionPhrase = regexp.MustCompile(`\b(?i:brought\s+to\s+you\s+by|presented\s+by|courtesy\s+of|sponsored\s+by|proudly\s+supported\s+by|promoted\s+by|promoter\s*:|thanks\s+to)\s+([A-Z0-9][A-Za-z0-9&'’.\-]*(?:\s+[A-Z0-9&][A-Za-z0-9&'’.\-]*){0,4})`)
)

// selectorText returns the first non-empty text under selector.
func selectorText(selector string) func(s *scope) (string, bool) {
	return func(s *scope) (string, bool) {
		if selector == "" {
			return "", false
		}
		var out string
		s.sel.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			out = collapse(el.Text())
			return out == ""
		})
		return out, out != ""
	}
}

// attrValue returns the first non-empty attribute value under selector.
func attrValue(selector, attr string) func(s *scope) (string, bool) {
	return func(s *scope) (string, bool) {
		if selector == "" {
			return "", false
		}
		var out string
		s.sel.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			v, _ := el.Attr(attr)
			out = collapse(v)
			return out == ""
		})
		return out, out != ""
	}
}

func winLine(s *scope) (string, bool) {
	for _, line := range s.lines {
		if winLinePattern.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

func prizeLabel(s *scope) (string, bool) {
	if m := prizeLabelPattern.FindStringSubmatch(s.text); m != nil {
		return "$" + m[1], true
	}
	return "", false
}

func valuedAt(s *scope) (string, bool) {
	if m := valuedAtPattern.FindStringSubmatch(s.text); m != nil {
		return "$" + m[1], true
	}
	return "", false
}

// amount turns a prize text strategy into a prize value strategy.
func amount(text func(s *scope) (string, bool)) func(s *scope) (float64, bool) {
	return func(s *scope) (float64, bool) {
		t, ok := text(s)
		if !ok {
			return 0, false
		}
		return competition.ParsePrizeValue(t)
	}
}

// closingSelector resolves the text (or datetime attribute) of a closing
// date element.
func closingSelector(selector string) func(s *scope) (competition.Date, bool) {
	return func(s *scope) (competition.Date, bool) {
		if selector == "" {
			return competition.Date{}, false
		}
		var d competition.Date
		found := false
		s.sel.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if dt, ok := el.Attr("datetime"); ok {
				d, found = s.resolver.Resolve(dt, s.ref)
			}
			if !found {
				d, found = s.resolver.Resolve(collapse(el.Text()), s.ref)
			}
			return !found
		})
		return d, found
	}
}

// closingLine resolves the date on an "Ends ..." or "Closes ..." line, or
// on the line after a bare label.
func closingLine(s *scope) (competition.Date, bool) {
	for i, line := range s.lines {
		m := closingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if d, ok := s.resolver.Resolve(m[1], s.ref); ok {
			return d, true
		}
		if strings.TrimSpace(m[1]) == "" && i+1 < len(s.lines) {
			if d, ok := s.resolver.Resolve(s.lines[i+1], s.ref); ok {
				return d, true
			}
		}
	}
	return competition.Date{}, false
}

func daysLeft(s *scope) (competition.Date, bool) {
	for _, line := range s.lines {
		if m := daysLeftPattern.FindString(line); m != "" {
			return s.resolver.Resolve(m, s.ref)
		}
	}
	return competition.Date{}, false
}

// logoAlt reads a brand name from a logo image's alt text.
func logoAlt(selector string) func(s *scope) (string, bool) {
	alt := attrValue(selector, "alt")
	return func(s *scope) (string, bool) {
		v, ok := alt(s)
		if !ok {
			return "", false
		}
		v = cleanBrand(trimLogoSuffix(v))
		return v, v != ""
	}
}

func trimLogoSuffix(s string) string {
	lower := strings.ToLower(s)
	for _, suffix := range []string{" logo", "-logo", "_logo"} {
		if strings.HasSuffix(lower, suffix) {
			return s[:len(s)-len(suffix)]
		}
	}
	return s
}

func attribution(s *scope) (string, bool) {
	for _, line := range s.lines {
		if m := attributionPhrase.FindStringSubmatch(line); m != nil {
			if b := cleanBrand(m[1]); b != "" {
				return b, true
			}
		}
	}
	return "", false
}

// within runs a text strategy against the text of a sub-element, e.g.
// attribution inside the footer.
func within(selector string, inner func(s *scope) (string, bool)) func(s *scope) (string, bool) {
	return func(s *scope) (string, bool) {
		if selector == "" {
			return "", false
		}
		sub := s.sel.Find(selector)
		if sub.Length() == 0 {
			return "", false
		}
		return inner(newScope(sub, blockText(sub.Nodes...), s.resolver, s.ref, s.base))
	}
}

func cleanBrand(s string) string {
	s = collapse(s)
	s = strings.TrimRight(s, ".,;:!-| ")
	return s
}

// resolveHref makes a link absolute against base and drops the fragment.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
