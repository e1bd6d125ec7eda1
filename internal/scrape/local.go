package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Firm sites routinely block obvious bot agents, so we present a plain
// browser identifier.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// LocalScraper fetches HTML via net/http, detects anti-bot blocks, and
// converts pages to plaintext.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper(timeout time.Duration) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Scrape fetches a URL, detects blocks, and strips HTML to plaintext.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	if len(body) == 0 {
		return nil, eris.New("local_http: empty page")
	}

	html := string(body)
	return &Result{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       html,
		Text:       StripHTML(html),
		StatusCode: resp.StatusCode,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

var (
	blockTagRes = buildBlockTagRes()
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	brRe        = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/li|/h[1-6]|/tr)>`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	nlRe        = regexp.MustCompile(`\n{3,}`)
)

func buildBlockTagRes() []*regexp.Regexp {
	var res []*regexp.Regexp
	for _, tag := range []string{"script", "style", "noscript"} {
		res = append(res, regexp.MustCompile(`(?is)<`+tag+`[^>]*>.*?</`+tag+`>`))
	}
	return res
}

// StripHTML removes script/style blocks, strips tags, decodes entities,
// and collapses whitespace. Block-level closing tags become newlines so
// line-oriented contact patterns still see page structure.
func StripHTML(html string) string {
	for _, re := range blockTagRes {
		html = re.ReplaceAllString(html, "")
	}

	html = brRe.ReplaceAllString(html, "\n")
	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	lines := strings.Split(html, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	html = strings.Join(lines, "\n")
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
