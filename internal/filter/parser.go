package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

var windowPattern = regexp.MustCompile(`(?i)^(\d+)\s*(d|days?|w|weeks?)?$`)

// ParseWindow parses a closing window into days.
//
// Supported formats:
//   - "14" or "14d" or "14 days"
//   - "2w" or "2 weeks"
func ParseWindow(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, fmt.Errorf("closing window cannot be empty")
	}

	matches := windowPattern.FindStringSubmatch(input)
	if matches == nil {
		return 0, fmt.Errorf("invalid closing window %q. Use '14', '14d' or '2w'", input)
	}

	n, err := strconv.Atoi(matches[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("closing window must be a positive number of days: %q", input)
	}

	if unit := strings.ToLower(matches[2]); strings.HasPrefix(unit, "w") {
		n *= 7
	}

	return n, nil
}

// ParseSites parses a comma-separated list of site names. Each name must
// be one of known.
func ParseSites(input string, known []competition.Site) ([]competition.Site, error) {
	var out []competition.Site
	for _, part := range strings.Split(input, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		found := false
		for _, k := range known {
			if string(k) == name {
				out = append(out, k)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown site: %s", name)
		}
	}
	return out, nil
}
