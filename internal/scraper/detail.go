package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/logger"
	"github.com/pfrederiksen/comp-scout/internal/site"
)

const (
	minWordLimit = 1
	maxWordLimit = 100
)

var (
	wordLimitPattern    = regexp.MustCompile(`(?i)\b(\d+)\s*words?\s*or\s*(?:less|fewer)\b|\bin\s*(\d+)\s*words?\b|\b(\d+)[\s-]*words?\s*limit\b|\bmax(?:imum)?\s*(?:of\s*)?(\d+)\s*words?\b`)
	wordCountPhrase     = regexp.MustCompile(`(?i)\b\d+\s*words?\b`)
	promptLabelPattern  = regexp.MustCompile(`(?i)^(?:to\s+enter|entry\s+question|the\s+question|question)\s*[:\-–]\s*(.*)$`)
	sentencePattern     = regexp.MustCompile(`[^.?!]*[.?!]+|[^.?!]+$`)
	questionCuePattern  = regexp.MustCompile(`(?i)\?|\b(?:tell\s+us|why|what|how|who|where|which|describe|share|explain|complete|name|if\s+you)\b`)
	entryMethodPattern  = regexp.MustCompile(`(?i)\b(?:how\s+to\s+enter|to\s+enter)\s*[:\-–]?\s*([^.\n]+\.?)`)
	brandLinePattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z &'’\-]{1,40}$`)
	fallbackPromptRules = []*regexp.Regexp{
		regexp.MustCompile(`(?is)tell\s+us\s.*?\bin\s+\d+\s+words\s+or\s+less[.!?]?`),
		regexp.MustCompile(`(?is)in\s+\d+\s+words\s+or\s+less,?\s.*?[.!?]`),
		regexp.MustCompile(`(?i)complete\s+the\s+sentence[:\s]+[^\n]+`),
		regexp.MustCompile(`(?i)answer\s+the\s+question[:\s]+[^\n]+`),
		regexp.MustCompile(`(?i)why\s+do\s+you\s[^\n?]*\?`),
		regexp.MustCompile(`(?i)what\s+makes\s[^\n?]*\?`),
		regexp.MustCompile(`(?i)describe\s[^\n]*?\bin\s+\d+\s+words`),
	}
)

// detailFields holds the ordered strategies for every Detail field.
type detailFields struct {
	title        []strategy[string]
	prompt       []strategy[string]
	prizeSummary []strategy[string]
	closing      []strategy[competition.Date]
	brand        []strategy[string]
	entryMethod  []strategy[string]
}

func newDetailFields(cfg site.Config) detailFields {
	sel := cfg.Detail
	brand := []strategy[string]{
		{"selector", selectorText(sel.Brand)},
		{"logo-alt", logoAlt(sel.Logo)},
		{"attribution", attribution},
		{"footer", within(sel.Footer, attribution)},
	}
	if cfg.BrandBeforeTitle {
		brand = append(brand, strategy[string]{"brand-line", brandLine})
	}

	return detailFields{
		title: []strategy[string]{
			{"selector", selectorText(sel.Title)},
			{"og-title", attrValue(`meta[property="og:title"]`, "content")},
			{"win-line", winLine},
			{"document-title", selectorText("title")},
		},
		prompt: []strategy[string]{
			{"label", labelledPrompt},
			{"word-limit-sentence", anchoredPrompt},
			{"fallback-pattern", fallbackPrompt},
		},
		prizeSummary: []strategy[string]{
			{"prize-value-label", prizeLabel},
			{"valued-at", valuedAt},
			{"prize-line", prizeLine},
		},
		closing: []strategy[competition.Date]{
			{"closing-line", closingLine},
			{"days-left", daysLeft},
		},
		brand:       brand,
		entryMethod: []strategy[string]{{"how-to-enter", entryMethod}},
	}
}

// ExtractDetail parses a detail page into a Detail. A page whose title or
// prompt cannot be found returns a *ParseError naming the URL; every other
// field degrades to absent (or its default) instead.
func ExtractDetail(cfg site.Config, pageURL, body string, ref competition.Date, scrapedAt time.Time) (*competition.Detail, error) {
	pageURL = strings.TrimSpace(pageURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)
	resolver := cfg.Resolver()
	fields := newDetailFields(cfg)

	page := newScope(doc.Selection, mainText(doc, cfg, body, base), resolver, ref, base)
	whole := newScope(doc.Selection, blockText(doc.Nodes...), resolver, ref, base)

	title, ok := firstOf(whole, fields.title)
	if !ok {
		return nil, &ParseError{Site: cfg.Name, URL: pageURL, Field: "title"}
	}
	page.title = title
	whole.title = title

	prompt, ok := firstOf(page, fields.prompt)
	if !ok {
		return nil, &ParseError{Site: cfg.Name, URL: pageURL, Field: "prompt"}
	}

	detail := competition.NewDetail(cfg.Name, pageURL, title, scrapedAt)
	detail.Prompt = prompt
	detail.WordLimit = wordLimit(page.text)

	if prize, ok := firstOf(page, fields.prizeSummary); ok {
		detail.PrizeSummary = prize
		if v, ok := competition.ParsePrizeValue(prize); ok {
			detail.PrizeValue = &v
		}
	}
	if d, ok := firstOf(page, fields.closing); ok {
		detail.ClosingDate = d.Ptr()
	}
	if brand, ok := firstOf(page, fields.brand); ok {
		detail.Brand = brand
	} else if cfg.BrandBeforeTitle {
		// readability drops a heading that repeats the document title
		if brand, ok := brandLine(whole); ok {
			detail.Brand = brand
		}
	}
	if method, ok := firstOf(page, fields.entryMethod); ok && !strings.EqualFold(method, prompt) {
		detail.EntryMethod = method
	}
	if cfg.StructuredData {
		detail.WinnerNotification = extractWinnerNotification(doc, resolver)
	}

	return detail, nil
}

// mainText picks the page's main content: the configured container,
// then readability's article extraction, then the whole body.
func mainText(doc *goquery.Document, cfg site.Config, body string, base *url.URL) string {
	if cfg.Detail.Main != "" {
		if main := doc.Find(cfg.Detail.Main).First(); main.Length() > 0 {
			if text := blockText(main.Nodes...); text != "" {
				return text
			}
		}
	}

	if base != nil {
		article, err := readability.FromReader(strings.NewReader(body), base)
		if err != nil {
			logger.Debug("Readability extraction failed", logger.Fields{"url": base.String(), "error": err.Error()})
		} else if article.Node != nil {
			if text := blockText(article.Node); text != "" {
				return text
			}
		}
	}

	return blockText(doc.Find("body").Nodes...)
}

// wordLimit returns the first explicit word-count declaration within the
// sane range, or the default.
func wordLimit(text string) int {
	for _, m := range wordLimitPattern.FindAllStringSubmatch(text, -1) {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if n, err := strconv.Atoi(g); err == nil && n >= minWordLimit && n <= maxWordLimit {
				return n
			}
		}
	}
	return competition.DefaultWordLimit
}

func labelledPrompt(s *scope) (string, bool) {
	for i, line := range s.lines {
		m := promptLabelPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		prompt := strings.TrimSpace(m[1])
		if prompt == "" && i+1 < len(s.lines) {
			prompt = s.lines[i+1]
		}
		if prompt != "" {
			return capitalize(prompt), true
		}
	}
	return "", false
}

// anchoredPrompt finds the sentence that declares the word limit and reads
// like a question.
func anchoredPrompt(s *scope) (string, bool) {
	for _, line := range s.lines {
		if !wordCountPhrase.MatchString(line) {
			continue
		}
		for _, sentence := range sentencePattern.FindAllString(line, -1) {
			sentence = strings.TrimSpace(sentence)
			if wordCountPhrase.MatchString(sentence) && questionCuePattern.MatchString(sentence) {
				return capitalize(sentence), true
			}
		}
		// A question on its own line, with the limit declared in the line.
		if questionCuePattern.MatchString(line) {
			return capitalize(line), true
		}
	}
	return "", false
}

func fallbackPrompt(s *scope) (string, bool) {
	for _, rule := range fallbackPromptRules {
		if m := rule.FindString(s.text); m != "" {
			return capitalize(collapse(m)), true
		}
	}
	return "", false
}

func prizeLine(s *scope) (string, bool) {
	for _, line := range s.lines {
		if strings.Contains(strings.ToLower(line), "prize") && strings.Contains(line, "$") {
			return line, true
		}
	}
	return "", false
}

func entryMethod(s *scope) (string, bool) {
	if m := entryMethodPattern.FindStringSubmatch(s.text); m != nil {
		if method := strings.TrimSpace(m[1]); method != "" {
			return method, true
		}
	}
	return "", false
}

// brandLine reads the short line directly above the title, where some
// sites print the sponsor's name. "Brand | Category" keeps the part before
// the bar.
func brandLine(s *scope) (string, bool) {
	if s.title == "" {
		return "", false
	}
	for i, line := range s.lines {
		if line != s.title || i == 0 {
			continue
		}
		candidate := strings.TrimSpace(strings.SplitN(s.lines[i-1], "|", 2)[0])
		if brandLinePattern.MatchString(candidate) && len(strings.Fields(candidate)) <= 5 {
			return cleanBrand(candidate), true
		}
		return "", false
	}
	return "", false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
