// Package calendar exports competition closing dates as iCalendar data.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

const dateLayout = "20060102"

// GenerateICS generates an iCalendar (.ics) document with one all-day
// event per competition on its closing date. Competitions without a
// closing date are left out. stamp is written as DTSTAMP.
func GenerateICS(summaries []*competition.Summary, stamp time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//comp-scout//closing dates//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, s := range summaries {
		if s.ClosingDate == nil || s.ClosingDate.IsZero() {
			continue
		}
		writeEvent(&ics, s, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, s *competition.Summary, stamp time.Time) {
	closing := *s.ClosingDate

	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID - stable across runs for the same competition
	id := s.ID
	if id == "" {
		id = competition.GenerateID(s.Site, s.URL)
	}
	ics.WriteString(fmt.Sprintf("UID:%s@comp-scout\r\n", id))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(stamp)))

	// All-day event; DTEND is exclusive
	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", closing.Time().Format(dateLayout)))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", closing.AddDays(1).Time().Format(dateLayout)))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS("Closes: "+s.Title)))

	var description []string
	if s.PrizeSummary != "" {
		description = append(description, "Prize: "+s.PrizeSummary)
	}
	if s.Brand != "" && s.Brand != competition.UnknownBrand {
		description = append(description, "Brand: "+s.Brand)
	}
	description = append(description, "Site: "+string(s.Site))
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(strings.Join(description, "\n"))))

	ics.WriteString(fmt.Sprintf("URL:%s\r\n", s.URL))
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
