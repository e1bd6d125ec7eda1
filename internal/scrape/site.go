package scrape

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ContactSubpages are the paths most likely to carry contact and team
// information. They are tried directly and also matched against homepage
// navigation links.
var ContactSubpages = []string{
	"/contact", "/contact-us", "/about", "/about-us",
	"/team", "/our-team", "/people", "/leadership",
	"/staff", "/our-firm", "/bio", "/advisors",
}

// SiteOptions bounds a site crawl.
type SiteOptions struct {
	MaxSubpages int           // in addition to the homepage
	Delay       time.Duration // pause between subpage fetches
}

// Site crawls a firm website: homepage first, then likely contact
// subpages, politely and sequentially.
type Site struct {
	scraper Scraper
	opts    SiteOptions
}

// NewSite creates a site crawler over the given page scraper.
func NewSite(scraper Scraper, opts SiteOptions) *Site {
	if opts.MaxSubpages <= 0 {
		opts.MaxSubpages = 6
	}
	if opts.Delay <= 0 {
		opts.Delay = 300 * time.Millisecond
	}
	return &Site{scraper: scraper, opts: opts}
}

// Homepage fetches just the landing page, retrying over plain http when
// the https fetch fails (some small firm sites still lack certificates).
func (s *Site) Homepage(ctx context.Context, siteURL string) (*Result, error) {
	page, err := s.scraper.Scrape(ctx, siteURL)
	if err == nil {
		return page, nil
	}
	if strings.HasPrefix(siteURL, "https://") {
		fallback := "http://" + strings.TrimPrefix(siteURL, "https://")
		if page, ferr := s.scraper.Scrape(ctx, fallback); ferr == nil {
			return page, nil
		}
	}
	return nil, err
}

// Crawl fetches the homepage and up to MaxSubpages likely contact pages.
// Subpage candidates come from homepage navigation links plus the fixed
// path list. Individual fetch failures are skipped; the crawl fails only
// when the homepage itself is unreachable.
func (s *Site) Crawl(ctx context.Context, siteURL string) ([]Result, error) {
	home, err := s.Homepage(ctx, siteURL)
	if err != nil {
		return nil, err
	}
	pages := []Result{*home}
	fetched := map[string]bool{normalizeURL(home.URL): true, normalizeURL(siteURL): true}

	fetchedCount := 0
	for _, sub := range s.subpageCandidates(home) {
		if fetchedCount >= s.opts.MaxSubpages {
			break
		}
		key := normalizeURL(sub)
		if fetched[key] {
			continue
		}
		fetched[key] = true

		select {
		case <-time.After(s.opts.Delay):
		case <-ctx.Done():
			return pages, ctx.Err()
		}

		page, err := s.scraper.Scrape(ctx, sub)
		if err != nil {
			zap.L().Debug("scrape: subpage skipped", zap.String("url", sub), zap.Error(err))
			continue
		}
		pages = append(pages, *page)
		fetchedCount++
	}
	return pages, nil
}

var hrefRe = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// subpageCandidates merges navigation links that look like contact pages
// with the fixed subpage paths, nav-discovered links first.
func (s *Site) subpageCandidates(home *Result) []string {
	base, err := url.Parse(home.URL)
	if err != nil {
		return nil
	}

	var candidates []string
	seen := map[string]bool{}
	add := func(raw string) {
		key := normalizeURL(raw)
		if !seen[key] {
			seen[key] = true
			candidates = append(candidates, raw)
		}
	}

	for _, m := range hrefRe.FindAllStringSubmatch(home.HTML, -1) {
		href := strings.TrimSpace(m[1])
		lower := strings.ToLower(href)
		for _, sub := range ContactSubpages {
			if !strings.Contains(lower, strings.TrimPrefix(sub, "/")) {
				continue
			}
			ref, err := url.Parse(href)
			if err != nil {
				break
			}
			resolved := base.ResolveReference(ref)
			if resolved.Host == base.Host {
				add(resolved.String())
			}
			break
		}
	}

	root := base.Scheme + "://" + base.Host
	for _, sub := range ContactSubpages {
		add(root + sub)
	}
	return candidates
}

func normalizeURL(raw string) string {
	return strings.TrimSuffix(strings.ToLower(raw), "/")
}
