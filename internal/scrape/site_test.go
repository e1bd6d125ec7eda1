package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScraper serves canned pages by URL and records fetch order.
type fakeScraper struct {
	pages   map[string]*Result
	fetched []string
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) Scrape(_ context.Context, url string) (*Result, error) {
	f.fetched = append(f.fetched, url)
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return nil, eris.Errorf("status 404 for %s", url)
}

func sitePage(url, html string) *Result {
	return &Result{URL: url, HTML: html, Text: StripHTML(html), StatusCode: 200}
}

func TestSiteCrawl(t *testing.T) {
	home := `<html><body><a href="/our-team">Our Team</a><a href="/blog">Blog</a></body></html>`
	fake := &fakeScraper{pages: map[string]*Result{
		"https://acme.com":          sitePage("https://acme.com", home),
		"https://acme.com/our-team": sitePage("https://acme.com/our-team", "<p>Jane Doe</p>"),
		"https://acme.com/contact":  sitePage("https://acme.com/contact", "<p>info@acme.com</p>"),
	}}

	site := NewSite(fake, SiteOptions{MaxSubpages: 2, Delay: time.Millisecond})
	pages, err := site.Crawl(context.Background(), "https://acme.com")
	require.NoError(t, err)

	// Homepage plus the two reachable subpages; /blog never tried.
	require.Len(t, pages, 3)
	assert.Equal(t, "https://acme.com", pages[0].URL)
	// Nav-discovered link comes before fixed-path probes.
	assert.Equal(t, "https://acme.com/our-team", pages[1].URL)
	assert.NotContains(t, fake.fetched, "https://acme.com/blog")
}

func TestSiteCrawlHomepageUnreachable(t *testing.T) {
	fake := &fakeScraper{pages: map[string]*Result{}}
	site := NewSite(fake, SiteOptions{Delay: time.Millisecond})
	_, err := site.Crawl(context.Background(), "https://gone.example")
	assert.Error(t, err)
	// https failure falls back to plain http before giving up.
	assert.Contains(t, fake.fetched, "http://gone.example")
}

func TestSiteHomepageHTTPFallback(t *testing.T) {
	fake := &fakeScraper{pages: map[string]*Result{
		"http://legacy.example": sitePage("http://legacy.example", "<p>hi</p>"),
	}}
	site := NewSite(fake, SiteOptions{Delay: time.Millisecond})
	page, err := site.Homepage(context.Background(), "https://legacy.example")
	require.NoError(t, err)
	assert.Equal(t, "http://legacy.example", page.URL)
}

func TestSiteCrawlRespectsMaxSubpages(t *testing.T) {
	pages := map[string]*Result{
		"https://acme.com": sitePage("https://acme.com", "<html></html>"),
	}
	for _, sub := range ContactSubpages {
		url := "https://acme.com" + sub
		pages[url] = sitePage(url, "<p>x</p>")
	}
	fake := &fakeScraper{pages: pages}

	site := NewSite(fake, SiteOptions{MaxSubpages: 3, Delay: time.Millisecond})
	got, err := site.Crawl(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestSiteCrawlCancelled(t *testing.T) {
	fake := &fakeScraper{pages: map[string]*Result{
		"https://acme.com": sitePage("https://acme.com", "<html></html>"),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	site := NewSite(fake, SiteOptions{Delay: 50 * time.Millisecond})
	pages, err := site.Crawl(ctx, "https://acme.com")
	assert.Error(t, err)
	// The homepage was already fetched before cancellation took effect.
	assert.Len(t, pages, 1)
}
