package scraper

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/comp-scout/internal/competition"
)

func textScope(text string) *scope {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	return newScope(doc.Selection, text, competition.NewResolver(competition.Convention{}), testRef, nil)
}

func htmlScope(t *testing.T, body string) *scope {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return newScope(doc.Selection, blockText(doc.Nodes...), competition.NewResolver(competition.Convention{}), testRef, nil)
}

func TestBlockText(t *testing.T) {
	body := `<div><p>Hello <b>world</b></p><script>var x = 1;</script>
<p>Second
   line</p><ul><li>one</li><li>two</li></ul><style>p{}</style>text<br>after</div>`
	s := htmlScope(t, body)

	want := "Hello world\nSecond line\none\ntwo\ntext\nafter"
	if s.text != want {
		t.Errorf("blockText() = %q, want %q", s.text, want)
	}
}

func TestWordLimit(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Tell us in 25 words or less why.", 25},
		{"Answer in 50 words.", 50},
		{"There is a 30 word limit.", 30},
		{"Maximum 40 words per entry.", 40},
		{"In 12 words or fewer", 12},
		{"First 10 words or less, then 20 words or less", 10},
		{"Write 500 words or less", 25},
		{"Write 500 words or less, or in 20 words", 20},
		{"No limit stated", 25},
		{"0 words or less", 25},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := wordLimit(tt.text); got != tt.want {
				t.Errorf("wordLimit(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestPromptStrategies(t *testing.T) {
	tests := []struct {
		name   string
		try    func(*scope) (string, bool)
		text   string
		want   string
		wantOK bool
	}{
		{"label", labelledPrompt, "Prize Value: $50\nTO ENTER: tell us your best joke in 25 words or less.", "Tell us your best joke in 25 words or less.", true},
		{"label on next line", labelledPrompt, "Question:\nWhat's your dream holiday?", "What's your dream holiday?", true},
		{"label absent", labelledPrompt, "Tell us why in 25 words or less.", "", false},
		{"word limit sentence", anchoredPrompt, "Entries close soon. In 25 words or less, tell us why you love pizza. Good luck!", "In 25 words or less, tell us why you love pizza.", true},
		{"question line with limit", anchoredPrompt, "What would you name our new flavour? 25 words max.", "What would you name our new flavour? 25 words max.", true},
		{"word limit tag only", anchoredPrompt, "25 Words or Less", "", false},
		{"fallback complete the sentence", fallbackPrompt, "Complete the sentence: I love summer because...", "Complete the sentence: I love summer because...", true},
		{"fallback why do you", fallbackPrompt, "why do you deserve this prize?", "Why do you deserve this prize?", true},
		{"fallback none", fallbackPrompt, "Enter now.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.try(textScope(tt.text))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if tt.wantOK && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClosingStrategies(t *testing.T) {
	tests := []struct {
		name   string
		try    func(*scope) (competition.Date, bool)
		text   string
		want   string
		wantOK bool
	}{
		{"ends full date", closingLine, "Ends Jan 5, 2026", "2026-01-05", true},
		{"ends today", closingLine, "Prize $50\nEnds Today", "2024-11-20", true},
		{"ends implicit year", closingLine, "Ends Jan 5", "2025-01-05", true},
		{"closing date label", closingLine, "Closing Date: 31/12/2024", "2024-12-31", true},
		{"label then next line", closingLine, "Closes\n1 December 2024", "2024-12-01", true},
		{"no closing line", closingLine, "3 days left", "", false},
		{"days left", daysLeft, "Prize\n3 days left", "2024-11-23", true},
		{"days remaining", daysLeft, "10 days remaining", "2024-11-30", true},
		{"days left absent", daysLeft, "Ends soon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.try(textScope(tt.text))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (got %v)", ok, tt.wantOK, got)
			}
			if ok && got.String() != tt.want {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestPrizeStrategies(t *testing.T) {
	tests := []struct {
		name   string
		try    func(*scope) (string, bool)
		text   string
		want   string
		wantOK bool
	}{
		{"prize value label", prizeLabel, "Prize Value: $1,299", "$1,299", true},
		{"valued at", valuedAt, "A trip for two valued at $4,999.", "$4,999", true},
		{"worth", valuedAt, "Five hampers worth $150 each", "$150", true},
		{"total prize pool", valuedAt, "Total prize pool: $10,000", "$10,000", true},
		{"no amount", valuedAt, "A lovely hamper", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.try(textScope(tt.text))
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("got %q, %v, want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBrandStrategies(t *testing.T) {
	t.Run("attribution phrase", func(t *testing.T) {
		got, ok := attribution(textScope("This competition is brought to you by Harvey Norman and friends."))
		if !ok || got != "Harvey Norman" {
			t.Errorf("attribution() = %q, %v", got, ok)
		}
	})

	t.Run("promoter", func(t *testing.T) {
		got, ok := attribution(textScope("The Promoter: Acme Pty Ltd, Sydney"))
		if !ok || got != "Acme Pty Ltd" {
			t.Errorf("attribution() = %q, %v", got, ok)
		}
	})

	t.Run("no attribution", func(t *testing.T) {
		if got, ok := attribution(textScope("Win a car today")); ok {
			t.Errorf("attribution() = %q, want none", got)
		}
	})

	t.Run("logo alt", func(t *testing.T) {
		s := htmlScope(t, `<div><img class="site-logo" alt="Bean Co Logo"></div>`)
		got, ok := logoAlt(`img[class*="logo"]`)(s)
		if !ok || got != "Bean Co" {
			t.Errorf("logoAlt() = %q, %v", got, ok)
		}
	})

	t.Run("footer attribution", func(t *testing.T) {
		s := htmlScope(t, `<main><p>Win a car</p></main><footer><p>Sponsored by Zoom Motors.</p></footer>`)
		got, ok := within("footer", attribution)(s)
		if !ok || got != "Zoom Motors" {
			t.Errorf("within(footer) = %q, %v", got, ok)
		}
	})

	t.Run("brand line", func(t *testing.T) {
		s := textScope("Home\nSunny Foods | Groceries\nWin a Year of Groceries\nPrize Value: $5,000")
		s.title = "Win a Year of Groceries"
		got, ok := brandLine(s)
		if !ok || got != "Sunny Foods" {
			t.Errorf("brandLine() = %q, %v", got, ok)
		}
	})

	t.Run("brand line rejects sentences", func(t *testing.T) {
		s := textScope("Enter this week for your chance to win big prizes today!\nWin a Car")
		s.title = "Win a Car"
		if got, ok := brandLine(s); ok {
			t.Errorf("brandLine() = %q, want none", got)
		}
	})
}

func TestFirstOf_Order(t *testing.T) {
	s := textScope("Win a Boat\nPrize Value: $80")
	strategies := []strategy[string]{
		{"never", func(*scope) (string, bool) { return "", false }},
		{"win-line", winLine},
		{"prize", prizeLabel},
	}
	got, ok := firstOf(s, strategies)
	if !ok || got != "Win a Boat" {
		t.Errorf("firstOf() = %q, %v, want first successful strategy", got, ok)
	}

	if _, ok := firstOf(s, []strategy[string]{}); ok {
		t.Error("firstOf() with no strategies should fail")
	}
}

func TestResolveHref(t *testing.T) {
	base, _ := url.Parse("https://www.competitions.com.au/tag/type/words-or-less-answer/")

	tests := []struct {
		href   string
		want   string
		wantOK bool
	}{
		{"/win-a-car/", "https://www.competitions.com.au/win-a-car/", true},
		{"https://netrewards.com.au/competitions/x/", "https://netrewards.com.au/competitions/x/", true},
		{"/win-a-car/#comments", "https://www.competitions.com.au/win-a-car/", true},
		{"#top", "", false},
		{"javascript:void(0)", "", false},
		{"mailto:hi@example.com", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := resolveHref(base, tt.href)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("resolveHref(%q) = %q, %v, want %q, %v", tt.href, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFAQEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"single page", `{"@type":"FAQPage","mainEntity":[{"name":"Q1","acceptedAnswer":{"text":"A1"}},{"name":"Q2","acceptedAnswer":[{"text":""},{"text":"<p>A2</p>"}]}]}`, 2},
		{"graph", `{"@graph":[{"@type":"WebPage"},{"@type":["FAQPage"],"mainEntity":{"name":"Q","acceptedAnswer":{"text":"A"}}}]}`, 1},
		{"array", `[{"@type":"Organization"},{"@type":"FAQPage","mainEntity":[{"name":"Q","acceptedAnswer":{"text":"A"}}]}]`, 1},
		{"not faq", `{"@type":"Article","mainEntity":[{"name":"Q","acceptedAnswer":{"text":"A"}}]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data interface{}
			if err := json.Unmarshal([]byte(tt.data), &data); err != nil {
				t.Fatal(err)
			}
			got := faqEntries(data)
			if len(got) != tt.want {
				t.Fatalf("faqEntries() returned %d entries, want %d: %+v", len(got), tt.want, got)
			}
		})
	}

	t.Run("markup stripped", func(t *testing.T) {
		var data interface{}
		_ = json.Unmarshal([]byte(`{"@type":"FAQPage","mainEntity":{"name":" When are winners notified? ","acceptedAnswer":{"text":"<p>Within <b>seven</b> days.</p>"}}}`), &data)
		got := faqEntries(data)
		if len(got) != 1 || got[0].question != "When are winners notified?" || got[0].answer != "Within seven days." {
			t.Errorf("faqEntries() = %+v", got)
		}
		if n, ok := notificationDays(got[0].answer); !ok || n != 7 {
			t.Errorf("notificationDays() = %d, %v, want 7", n, ok)
		}
	})
}
