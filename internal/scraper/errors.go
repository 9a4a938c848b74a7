package scraper

import (
	"fmt"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// ParseError reports a record dropped because a required field could not
// be determined. Missing optional fields never produce one.
type ParseError struct {
	Site  competition.Site
	URL   string
	Field string
}

func (e *ParseError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("parsing %s page: missing %s", e.Site, e.Field)
	}
	return fmt.Sprintf("parsing %s: missing %s", e.URL, e.Field)
}
