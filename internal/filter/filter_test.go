package filter

import (
	"testing"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

func date(y, m, d int) *competition.Date {
	return &competition.Date{Year: y, Month: timeMonth(m), Day: d}
}

func prize(v float64) *float64 { return &v }

var ref = competition.Date{Year: 2024, Month: 11, Day: 20}

func testSummaries() []*competition.Summary {
	car := competition.NewSummary(competition.SiteCompetitionsComAu, "https://www.competitions.com.au/win-a-car/", "Win a Car")
	car.PrizeValue = prize(30000)
	car.ClosingDate = date(2024, 12, 31)
	car.Brand = "Zoom Motors"

	mug := competition.NewSummary(competition.SiteNetRewards, "https://netrewards.com.au/competitions/mug/", "Win a Mug")
	mug.PrizeValue = prize(20)
	mug.ClosingDate = date(2024, 11, 25)

	closed := competition.NewSummary(competition.SiteNetRewards, "https://netrewards.com.au/competitions/old/", "Win an Old Thing")
	closed.ClosingDate = date(2024, 11, 19)

	mystery := competition.NewSummary(competition.SiteCompetitionsComAu, "https://www.competitions.com.au/win-mystery/", "Win a Mystery Box")
	mystery.PrizeSummary = "Mystery hamper"

	return []*competition.Summary{car, mug, closed, mystery}
}

func titles(summaries []*competition.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.Title
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   []string
	}{
		{
			name:   "default drops closed",
			filter: NewFilter(),
			want:   []string{"Win a Car", "Win a Mug", "Win a Mystery Box"},
		},
		{
			name:   "include closed keeps everything",
			filter: &Filter{IncludeClosed: true},
			want:   []string{"Win a Car", "Win a Mug", "Win an Old Thing", "Win a Mystery Box"},
		},
		{
			name:   "min prize keeps unknown values",
			filter: &Filter{MinPrize: 100},
			want:   []string{"Win a Car", "Win a Mystery Box"},
		},
		{
			name:   "closing within keeps unknown dates",
			filter: &Filter{ClosingWithin: 7},
			want:   []string{"Win a Mug", "Win a Mystery Box"},
		},
		{
			name:   "closing window is inclusive",
			filter: &Filter{ClosingWithin: 41},
			want:   []string{"Win a Car", "Win a Mug", "Win a Mystery Box"},
		},
		{
			name:   "keyword matches brand and prize",
			filter: &Filter{Keywords: []string{"zoom", "HAMPER"}},
			want:   []string{"Win a Car", "Win a Mystery Box"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(tt.filter.Apply(testSummaries(), ref))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Apply()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilter_NoReferenceDate(t *testing.T) {
	f := &Filter{ClosingWithin: 1}
	got := f.Apply(testSummaries(), competition.Date{})
	if len(got) != 4 {
		t.Errorf("Apply() without a reference date kept %d, want 4", len(got))
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	if NewFilter().IsEmpty() {
		t.Error("NewFilter() should drop closed competitions")
	}
	if !(&Filter{IncludeClosed: true}).IsEmpty() {
		t.Error("IncludeClosed alone should be empty")
	}
}

func TestFilter_String(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{"defaults", NewFilter(), "Excluding closed"},
		{"all", &Filter{Keywords: []string{"car", "boat"}, MinPrize: 500, ClosingWithin: 14},
			"Keywords: car, boat | Min prize: $500 | Closing within 14 days | Excluding closed"},
		{"nothing", &Filter{IncludeClosed: true}, "No active filters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
