// Package scrape fetches firm websites and converts them to text for the
// scoring and contact-extraction stages.
package scrape

import (
	"context"
)

// Result holds one fetched page. HTML is the raw body (for structured
// extraction), Text the tag-stripped plaintext.
type Result struct {
	URL        string
	Title      string
	HTML       string
	Text       string
	StatusCode int
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
}
