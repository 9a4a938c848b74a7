package competition

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error: %v", s, err)
	}
	return d
}

func TestResolver_Resolve(t *testing.T) {
	ref := Date{Year: 2024, Month: time.November, Day: 20}
	compact := NewResolver(Convention{CompactNumeric: true})
	plain := NewResolver(Convention{})

	tests := []struct {
		name     string
		resolver Resolver
		text     string
		want     string
		wantOK   bool
	}{
		{"iso", plain, "2024-12-31", "2024-12-31", true},
		{"iso with time", plain, "2025-01-05T23:59:00+11:00", "2025-01-05", true},
		{"day month year full", plain, "31 December 2024", "2024-12-31", true},
		{"day month year abbreviated", plain, "5 Jan 2025", "2025-01-05", true},
		{"day month year ordinal", plain, "Closes 1st of March 2025", "2025-03-01", true},
		{"month day year", plain, "Ends Jan 5, 2026", "2026-01-05", true},
		{"slash", plain, "15/01/2025", "2025-01-15", true},
		{"dash numeric", plain, "15-01-2025", "2025-01-15", true},
		{"compact", compact, "Ends: 30 12 25", "2025-12-30", true},
		{"compact disabled", plain, "30 12 25", "", false},
		{"compact high two-digit year", compact, "01 01 99", "2099-01-01", true},
		{"in days", plain, "in 7 days", "2024-11-27", true},
		{"in number word days", plain, "in seven days", "2024-11-27", true},
		{"days after event", plain, "Winners drawn 5 days after the close", "2024-11-25", true},
		{"days left", plain, "3 days left", "2024-11-23", true},
		{"today", plain, "Ends Today", "2024-11-20", true},
		{"tomorrow", plain, "Closes tomorrow", "2024-11-21", true},
		{"implicit year ahead", plain, "Ends Dec 24", "2024-12-24", true},
		{"implicit year rolls over", plain, "Ends Jan 5", "2025-01-05", true},
		{"implicit same day", plain, "20 November", "2024-11-20", true},
		{"vague following week", plain, "the following week", "", false},
		{"vague after judging", plain, "after judging", "", false},
		{"empty", plain, "", "", false},
		{"garbage", plain, "not a date at all", "", false},
		{"impossible date", plain, "31/02/2025", "", false},
		{"iso wins over slash", plain, "2025-02-01 or 03/04/2025", "2025-02-01", true},
		{"absolute wins over relative", plain, "in 3 days, on 1 December 2024", "2024-12-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.resolver.Resolve(tt.text, ref)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v (got %v)", tt.text, ok, tt.wantOK, got)
			}
			if !tt.wantOK {
				if !got.IsZero() {
					t.Errorf("Resolve(%q) = %v, want unknown", tt.text, got)
				}
				return
			}
			if want := mustDate(t, tt.want); got != want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.text, got, want)
			}
		})
	}
}

func TestResolver_MatchesReferenceParser(t *testing.T) {
	r := NewResolver(Convention{CompactNumeric: true})
	ref := Date{Year: 2024, Month: time.June, Day: 1}

	tests := []struct {
		layout string
		text   string
	}{
		{"2006-01-02", "2025-03-09"},
		{"2 January 2006", "9 March 2025"},
		{"2 Jan 2006", "9 Mar 2025"},
		{"January 2, 2006", "March 9, 2025"},
		{"02/01/2006", "09/03/2025"},
		{"2/1/2006", "9/3/2025"},
		{"02 01 06", "09 03 25"},
		{"2006-01-02", "2028-02-29"},
		{"2 January 2006", "31 December 2030"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			want, err := time.Parse(tt.layout, tt.text)
			if err != nil {
				t.Fatalf("time.Parse(%q, %q) error: %v", tt.layout, tt.text, err)
			}
			got, ok := r.Resolve(tt.text, ref)
			if !ok {
				t.Fatalf("Resolve(%q) returned unknown", tt.text)
			}
			if got != DateOf(want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.text, got, DateOf(want))
			}
		})
	}
}

func TestResolver_RelativeIsPureInReference(t *testing.T) {
	r := NewResolver(Convention{})
	start := Date{Year: 2023, Month: time.December, Day: 20}

	for i := 0; i < 800; i += 7 {
		ref := start.AddDays(i)
		got, ok := r.Resolve("in 7 days", ref)
		if !ok {
			t.Fatalf("Resolve(in 7 days, %v) returned unknown", ref)
		}
		want := DateOf(ref.Time().AddDate(0, 0, 7))
		if got != want {
			t.Errorf("Resolve(in 7 days, %v) = %v, want %v", ref, got, want)
		}
	}
}

func TestResolver_NoReferenceMeansNoRelative(t *testing.T) {
	r := NewResolver(Convention{})
	if got, ok := r.Resolve("in 7 days", Date{}); ok {
		t.Errorf("Resolve without reference = %v, want unknown", got)
	}
	if got, ok := r.Resolve("31 December 2024", Date{}); !ok || got.String() != "2024-12-31" {
		t.Errorf("Resolve absolute without reference = %v, %v", got, ok)
	}
}

func TestResolver_ResolveAbsoluteIgnoresRelative(t *testing.T) {
	r := NewResolver(Convention{})
	if got, ok := r.ResolveAbsolute("within 7 days of the draw"); ok {
		t.Errorf("ResolveAbsolute() = %v, want unknown", got)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"7", 7, true},
		{"seven", 7, true},
		{"Ten", 10, true},
		{"many", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCount(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCount(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
