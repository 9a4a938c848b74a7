package competition

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Convention describes how a source writes dates that a generic parser
// cannot interpret on its own. It is fixed per source, never inferred.
type Convention struct {
	// CompactNumeric enables the "DD MM YY" notation.
	CompactNumeric bool `yaml:"compact_numeric"`
	// Century is added to two-digit years. Zero means 2000, so "30 12 25"
	// is 30 December 2025 and "01 01 99" is 1 January 2099.
	Century int `yaml:"century"`
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

const numberPattern = `(\d+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|fourteen|twenty|thirty)`

var (
	isoPattern      = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:\b|T)`)
	dayMonthYear    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\.?,?\s+(\d{4})\b`)
	monthDayYear    = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	slashPattern    = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	compactPattern  = regexp.MustCompile(`\b(\d{1,2})\s+(\d{1,2})\s+(\d{2})\b`)
	inDaysPattern   = regexp.MustCompile(`(?i)\bin\s+` + numberPattern + `\s+days?\b`)
	daysAfter       = regexp.MustCompile(`(?i)\b` + numberPattern + `\s+(?:business\s+|working\s+)?days?\s+(?:after|from|following)\b`)
	daysLeftPattern = regexp.MustCompile(`(?i)\b` + numberPattern + `\s+days?\s+(?:left|remaining|to go)\b`)
	todayPattern    = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowPattern = regexp.MustCompile(`(?i)\btomorrow\b`)
	dayMonth        = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b`)
	monthDay        = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "fourteen": 14, "twenty": 20, "thirty": 30,
}

// ParseCount reads a day count written as digits or as a number word.
func ParseCount(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Resolver turns free-text date expressions into calendar dates.
type Resolver struct {
	conv Convention
}

// NewResolver returns a Resolver for a source's date convention.
func NewResolver(conv Convention) Resolver {
	if conv.Century == 0 {
		conv.Century = 2000
	}
	return Resolver{conv: conv}
}

// Resolve finds the first date expression in text. Absolute notations are
// tried first in fixed priority order: ISO, day-month-year (or
// month-day-year) with month names, DD/MM/YYYY, then the compact DD MM YY
// form when the convention enables it. Relative expressions ("in 7 days",
// "7 days after the draw", "3 days left", "today") are computed from ref,
// and a month and day without a year resolves to its next occurrence on or
// after ref. Anything else, including vague phrases like "the following
// week", is unknown. Resolve never reads the wall clock.
func (r Resolver) Resolve(text string, ref Date) (Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, false
	}
	if d, ok := r.ResolveAbsolute(text); ok {
		return d, true
	}
	if ref.IsZero() {
		return Date{}, false
	}
	if d, ok := resolveRelative(text, ref); ok {
		return d, true
	}
	return resolveImplicitYear(text, ref)
}

// ResolveAbsolute only accepts notations that carry a full date.
func (r Resolver) ResolveAbsolute(text string) (Date, bool) {
	if m := isoPattern.FindStringSubmatch(text); m != nil {
		if d, ok := NewDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3])); ok {
			return d, true
		}
	}
	if m := dayMonthYear.FindStringSubmatch(text); m != nil {
		if d, ok := NewDate(atoi(m[3]), parseMonth(m[2]), atoi(m[1])); ok {
			return d, true
		}
	}
	if m := monthDayYear.FindStringSubmatch(text); m != nil {
		if d, ok := NewDate(atoi(m[3]), parseMonth(m[1]), atoi(m[2])); ok {
			return d, true
		}
	}
	if m := slashPattern.FindStringSubmatch(text); m != nil {
		if d, ok := NewDate(atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1])); ok {
			return d, true
		}
	}
	if r.conv.CompactNumeric {
		if m := compactPattern.FindStringSubmatch(text); m != nil {
			if d, ok := NewDate(r.conv.Century+atoi(m[3]), time.Month(atoi(m[2])), atoi(m[1])); ok {
				return d, true
			}
		}
	}
	return Date{}, false
}

func resolveRelative(text string, ref Date) (Date, bool) {
	for _, p := range []*regexp.Regexp{inDaysPattern, daysAfter, daysLeftPattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, ok := ParseCount(m[1]); ok {
				return ref.AddDays(n), true
			}
		}
	}
	if todayPattern.MatchString(text) {
		return ref, true
	}
	if tomorrowPattern.MatchString(text) {
		return ref.AddDays(1), true
	}
	return Date{}, false
}

func resolveImplicitYear(text string, ref Date) (Date, bool) {
	var month time.Month
	var day int
	if m := dayMonth.FindStringSubmatch(text); m != nil {
		month, day = parseMonth(m[2]), atoi(m[1])
	} else if m := monthDay.FindStringSubmatch(text); m != nil {
		month, day = parseMonth(m[1]), atoi(m[2])
	} else {
		return Date{}, false
	}
	d, ok := NewDate(ref.Year, month, day)
	if !ok {
		// 29 February outside a leap year
		return NewDate(ref.Year+1, month, day)
	}
	if d.Before(ref) {
		return NewDate(ref.Year+1, month, day)
	}
	return d, true
}

func parseMonth(s string) time.Month {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return 0
	}
	months := map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
	return months[s[:3]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
