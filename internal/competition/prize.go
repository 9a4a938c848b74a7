package competition

import (
	"regexp"
	"strconv"
	"strings"
)

var dollarAmount = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d{1,2})?)`)

// ParsePrizeValue extracts the first dollar amount in text, e.g.
// "$1,500 Gift Card" is 1500.
func ParsePrizeValue(text string) (float64, bool) {
	m := dollarAmount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
