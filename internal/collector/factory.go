package collector

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/domain"
)

// Options configures every collector mode.
type Options struct {
	Mode            string
	Instance        string
	Language        string
	WaitTimeout     time.Duration
	RequestInterval time.Duration
	CookieFile      string
	ProfileDir      string
	Headless        bool
	UserAgent       string
	FixtureFile     string
}

// NewCollector selects the implementation for the configured mode.
func NewCollector(opts Options) (domain.Collector, error) {
	switch opts.Mode {
	case "browser":
		return NewBrowserCollector(opts), nil
	case "public":
		return NewPublicCollector(opts)
	case "mock":
		if opts.FixtureFile == "" {
			return nil, fmt.Errorf("fixture file is required for mock mode")
		}
		return NewMockCollector(opts.FixtureFile), nil
	default:
		return nil, fmt.Errorf("unknown collector mode: %s (use 'browser', 'public', or 'mock')", opts.Mode)
	}
}

// SearchURL builds the mirror's tweet search URL for a term.
func SearchURL(instance, term, language string) string {
	q := url.Values{}
	q.Set("f", "tweets")
	q.Set("q", term)
	if language != "" {
		q.Set("lang", language)
	}
	return instance + "/search?" + q.Encode()
}
