package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		_, _ = w.Write([]byte(`<html><head><title>Acme Wealth</title></head>
<body><h1>Welcome</h1><p>Fiduciary advisors serving families.</p>
<script>var x = 1;</script></body></html>`))
	}))
	defer srv.Close()

	s := NewLocalScraper(5 * time.Second)
	page, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Wealth", page.Title)
	assert.Contains(t, page.Text, "Fiduciary advisors serving families.")
	assert.NotContains(t, page.Text, "var x")
	assert.Contains(t, page.HTML, "<h1>")
}

func TestLocalScrapeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewLocalScraper(5 * time.Second)
	_, err := s.Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestLocalScrapeBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>Checking your browser before accessing</html>"))
	}))
	defer srv.Close()

	s := NewLocalScraper(5 * time.Second)
	_, err := s.Scrape(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestStripHTMLLineStructure(t *testing.T) {
	html := `<div>Jane Doe</div><div>Chief Compliance Officer</div>`
	text := StripHTML(html)
	assert.Equal(t, "Jane Doe\nChief Compliance Officer", text)
}

func TestStripHTMLEntities(t *testing.T) {
	text := StripHTML(`<p>Smith &amp; Co</p>`)
	assert.Equal(t, "Smith & Co", text)
}

func TestExtractTitleMissing(t *testing.T) {
	assert.Empty(t, extractTitle([]byte("<html><body>no title</body></html>")))
}

func TestDetectBlock(t *testing.T) {
	resp := &http.Response{StatusCode: 403, Header: http.Header{"Cf-Ray": []string{"abc"}}}
	blocked, bt := DetectBlock(resp, nil)
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, bt)

	resp = &http.Response{StatusCode: 200, Header: http.Header{}}
	blocked, bt = DetectBlock(resp, []byte("please solve this reCAPTCHA"))
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, bt)

	blocked, _ = DetectBlock(resp, []byte("<html>a normal page</html>"))
	assert.False(t, blocked)
}
