// Package hunter is a minimal Hunter.io v2 client covering the
// domain-search endpoint used for contact discovery.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.hunter.io/v2"
	defaultLimit   = 10
)

// Client performs lookups against the Hunter.io API.
type Client interface {
	DomainSearch(ctx context.Context, domain string) ([]Person, error)
}

// Person is one discovered email holder at a domain.
type Person struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"value"`
	Position  string `json:"position"`
}

// Name returns the person's full name, which may be empty.
func (p Person) Name() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

type domainSearchResponse struct {
	Data struct {
		Domain string   `json:"domain"`
		Emails []Person `json:"emails"`
	} `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithLimit sets the maximum results per search. The free tier caps at 10.
func WithLimit(limit int) Option {
	return func(c *httpClient) {
		c.limit = limit
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
}

// NewClient creates a Hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limit:   defaultLimit,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DomainSearch returns people with known email addresses at a domain.
// Quota exhaustion (429) and bad credentials (401) return an empty result
// rather than an error: contact discovery must degrade to scraping, not
// fail the batch.
func (c *httpClient) DomainSearch(ctx context.Context, domain string) ([]Person, error) {
	if domain == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", c.apiKey)
	q.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/domain-search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		zap.L().Warn("hunter: rate limit reached", zap.String("domain", domain))
		return nil, nil
	case http.StatusUnauthorized:
		zap.L().Warn("hunter: API key rejected")
		return nil, nil
	default:
		return nil, eris.Errorf("hunter: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result domainSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "hunter: decode response")
	}
	return result.Data.Emails, nil
}
