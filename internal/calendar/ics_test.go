package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

var stamp = time.Date(2024, 11, 20, 8, 30, 0, 0, time.UTC)

func summary(title string, closing *competition.Date) *competition.Summary {
	s := competition.NewSummary(competition.SiteCompetitionsComAu, "https://www.competitions.com.au/"+strings.ToLower(strings.ReplaceAll(title, " ", "-"))+"/", title)
	s.ClosingDate = closing
	return s
}

func TestGenerateICS(t *testing.T) {
	s := summary("Win a Car, Boat; Plane", competition.Date{Year: 2024, Month: time.December, Day: 31}.Ptr())
	s.PrizeSummary = "$30,000"
	s.Brand = "Zoom Motors"

	ics := GenerateICS([]*competition.Summary{s}, stamp)

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//comp-scout//closing dates//EN",
		"BEGIN:VEVENT",
		"UID:" + s.ID + "@comp-scout",
		"DTSTAMP:20241120T083000Z",
		"DTSTART;VALUE=DATE:20241231",
		"DTEND;VALUE=DATE:20250101",
		"SUMMARY:Closes: Win a Car\\, Boat\\; Plane",
		"DESCRIPTION:Prize: $30\\,000\\nBrand: Zoom Motors\\nSite: competitions.com.au",
		"URL:" + s.URL,
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s\n%s", field, ics)
		}
	}

	// Check that lines end with \r\n
	for _, line := range strings.SplitAfter(strings.TrimSuffix(ics, "\r\n"), "\r\n") {
		if !strings.HasSuffix(line, "\r\n") && line != "END:VCALENDAR" {
			t.Errorf("line %q should end with \\r\\n", line)
		}
	}
}

func TestGenerateICS_SkipsUnknownClosing(t *testing.T) {
	summaries := []*competition.Summary{
		summary("Win a Mug", competition.Date{Year: 2024, Month: time.November, Day: 25}.Ptr()),
		summary("Win a Mystery Box", nil),
		summary("Win a Hat", &competition.Date{}),
	}

	ics := GenerateICS(summaries, stamp)

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("got %d events, want 1", got)
	}
	if strings.Contains(ics, "Mystery") || strings.Contains(ics, "Hat") {
		t.Error("competitions without a closing date should be left out")
	}
	if strings.Contains(ics, "Brand:") {
		t.Error("an unknown brand should not be described")
	}
}

func TestGenerateICS_Empty(t *testing.T) {
	ics := GenerateICS(nil, stamp)
	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Errorf("empty calendar = %q", ics)
	}
	if strings.Contains(ics, "VEVENT") {
		t.Error("empty calendar should have no events")
	}
}

func TestFormatICSTime(t *testing.T) {
	testTime := time.Date(2026, 3, 15, 14, 30, 0, 0, time.FixedZone("AEDT", 11*3600))
	formatted := formatICSTime(testTime)

	expected := "20260315T033000Z"
	if formatted != expected {
		t.Errorf("formatICSTime() = %q, want %q", formatted, expected)
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Simple text", "Simple text"},
		{"Text with, comma", "Text with\\, comma"},
		{"Text with; semicolon", "Text with\\; semicolon"},
		{"Text with\\backslash", "Text with\\\\backslash"},
		{"Text with\nnewline", "Text with\\nnewline"},
		{"All, special; chars\\\n", "All\\, special\\; chars\\\\\\n"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeICS(tt.input)
			if got != tt.expected {
				t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
