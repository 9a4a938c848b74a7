// Package site holds the per-source configuration records that drive
// fetching and extraction: listing URLs, CSS selectors, render anchors and
// date conventions. Records are values; every accessor returns a copy so
// extractors cannot mutate shared configuration.
package site

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
	"gopkg.in/yaml.v3"
)

// ListingSelectors locate competition cards and their fields on a listing page.
type ListingSelectors struct {
	// Card selects repeating card containers. When empty, cards are found
	// by climbing from each Link match to the nearest ancestor containing
	// ContainerText.
	Card string `yaml:"card"`
	// Skip drops any card that contains a match (sponsored/exit cards).
	Skip string `yaml:"skip"`
	// RequireText drops cards whose text does not contain it (case-insensitive).
	RequireText string `yaml:"require_text"`
	Link        string `yaml:"link"`
	Title       string `yaml:"title"`
	Prize       string `yaml:"prize"`
	Closing     string `yaml:"closing"`
	Brand       string `yaml:"brand"`
	Logo        string `yaml:"logo"`
	// ContainerText marks the ancestor that holds a link's card text.
	ContainerText string `yaml:"container_text"`
}

// DetailSelectors locate fields on a detail page.
type DetailSelectors struct {
	Title  string `yaml:"title"`
	Main   string `yaml:"main"`
	Brand  string `yaml:"brand"`
	Logo   string `yaml:"logo"`
	Footer string `yaml:"footer"`
}

// Config is the immutable configuration record for one source site.
type Config struct {
	Name       competition.Site `yaml:"name"`
	ListingURL string           `yaml:"listing_url"`
	// WaitFor is the selector that signals client-side rendering finished.
	WaitFor string   `yaml:"wait_for"`
	Hosts   []string `yaml:"hosts"`

	Listing ListingSelectors       `yaml:"listing"`
	Detail  DetailSelectors        `yaml:"detail"`
	Dates   competition.Convention `yaml:"dates"`

	// StructuredData enables JSON-LD FAQ extraction on detail pages.
	StructuredData bool `yaml:"structured_data"`
	// BrandBeforeTitle means the first short text line above the title names the brand.
	BrandBeforeTitle bool `yaml:"brand_before_title"`
}

// Resolver returns a date resolver using the site's convention.
func (c Config) Resolver() competition.Resolver {
	return competition.NewResolver(c.Dates)
}

// MatchesHost reports whether rawURL belongs to this site.
func (c Config) MatchesHost(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range c.hosts() {
		if host == h {
			return true
		}
	}
	return false
}

func (c Config) hosts() []string {
	if len(c.Hosts) > 0 {
		out := make([]string, len(c.Hosts))
		for i, h := range c.Hosts {
			out[i] = strings.TrimPrefix(strings.ToLower(h), "www.")
		}
		return out
	}
	return []string{strings.TrimPrefix(strings.ToLower(string(c.Name)), "www.")}
}

func (c Config) clone() Config {
	c.Hosts = append([]string(nil), c.Hosts...)
	return c
}

// Defaults returns the built-in configuration for the known sources.
func Defaults() []Config {
	return []Config{
		{
			Name:       competition.SiteCompetitionsComAu,
			ListingURL: "https://www.competitions.com.au/tag/type/words-or-less-answer/",
			WaitFor:    ".card",
			Hosts:      []string{"competitions.com.au"},
			Listing: ListingSelectors{
				Card:        ".card",
				Skip:        `a[href*="/exit/"]`,
				RequireText: "words or less",
				Link:        `a.loadcomp, a[href*="/win-"], a[href*="/competition/"]`,
				Title:       "h2 a, h2, h5",
				Prize:       `.badge-success, [class*="prize"]`,
				Closing:     `time, [class*="closing"], [class*="ends"]`,
				Brand:       `a[href*="/tag/brand/"]`,
				Logo:        `img[class*="logo"], .brand img`,
			},
			Detail: DetailSelectors{
				Title:  "h1",
				Main:   "main, article, .content, #content",
				Brand:  `a[href*="/tag/brand/"]`,
				Logo:   `img[class*="logo"]`,
				Footer: "footer",
			},
			StructuredData: true,
		},
		{
			Name:       competition.SiteNetRewards,
			ListingURL: "https://netrewards.com.au/competitions-category/number-of-words/",
			WaitFor:    ".competition-item",
			Hosts:      []string{"netrewards.com.au"},
			Listing: ListingSelectors{
				Link:          `a[href*="netrewards.com.au/competitions/"]`,
				ContainerText: "Prize Value",
				Logo:          `img[class*="logo"]`,
			},
			Detail: DetailSelectors{
				Title:  "h1",
				Main:   "main, article, .entry-content",
				Logo:   `img[class*="logo"]`,
				Footer: "footer",
			},
			Dates:            competition.Convention{CompactNumeric: true, Century: 2000},
			BrandBeforeTitle: true,
		},
	}
}

// Registry is a read-only set of site configurations keyed by name.
type Registry struct {
	sites map[competition.Site]Config
	order []competition.Site
}

// NewRegistry builds a registry; later configs with the same name replace
// earlier ones but keep their original position.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{sites: make(map[competition.Site]Config)}
	for _, c := range configs {
		r.put(c)
	}
	return r
}

// Default returns a registry of the built-in sites.
func Default() *Registry {
	return NewRegistry(Defaults()...)
}

func (r *Registry) put(c Config) {
	if _, ok := r.sites[c.Name]; !ok {
		r.order = append(r.order, c.Name)
	}
	r.sites[c.Name] = c.clone()
}

// Get returns a copy of the named site's configuration.
func (r *Registry) Get(name competition.Site) (Config, bool) {
	c, ok := r.sites[name]
	if !ok {
		return Config{}, false
	}
	return c.clone(), true
}

// All returns copies of every configuration in registration order.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sites[name].clone())
	}
	return out
}

// Names returns the registered site names, sorted.
func (r *Registry) Names() []competition.Site {
	names := append([]competition.Site(nil), r.order...)
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ForURL finds the site a detail URL belongs to.
func (r *Registry) ForURL(rawURL string) (Config, bool) {
	for _, name := range r.order {
		if c := r.sites[name]; c.MatchesHost(rawURL) {
			return c.clone(), true
		}
	}
	return Config{}, false
}

type fileFormat struct {
	Sites []Config `yaml:"sites"`
}

// LoadFile reads a YAML sites file and layers it over the built-in
// defaults. A site with a known name replaces the built-in record; a new
// name adds a site.
func LoadFile(path string) (*Registry, error) {
	path = expandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sites file: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sites file: %w", err)
	}

	r := Default()
	for i, c := range f.Sites {
		if c.Name == "" {
			return nil, fmt.Errorf("sites file: entry %d has no name", i)
		}
		if c.ListingURL == "" {
			return nil, fmt.Errorf("sites file: site %s has no listing_url", c.Name)
		}
		if c.Listing.Link == "" {
			return nil, fmt.Errorf("sites file: site %s has no listing.link selector", c.Name)
		}
		r.put(c)
	}
	return r, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
