package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeone-ai/ria-pipeline/internal/contact"
	"github.com/surgeone-ai/ria-pipeline/internal/model"
	"github.com/surgeone-ai/ria-pipeline/internal/registry"
	"github.com/surgeone-ai/ria-pipeline/internal/scorer"
	"github.com/surgeone-ai/ria-pipeline/internal/scrape"
	"github.com/surgeone-ai/ria-pipeline/internal/store"
)

// fakeScraper serves canned pages and counts fetches.
type fakeScraper struct {
	pages   map[string]string
	fetches int
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	f.fetches++
	html, ok := f.pages[url]
	if !ok {
		return nil, eris.Errorf("status 404 for %s", url)
	}
	return &scrape.Result{URL: url, HTML: html, Text: scrape.StripHTML(html), StatusCode: 200}, nil
}

func newTestPipeline(t *testing.T, pages map[string]string, opts Options) (*Pipeline, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	site := scrape.NewSite(&fakeScraper{pages: pages}, scrape.SiteOptions{
		MaxSubpages: 2,
		Delay:       time.Millisecond,
	})
	if opts.ScoreDelay == 0 {
		opts.ScoreDelay = time.Millisecond
	}
	if opts.FirmDelay == 0 {
		opts.FirmDelay = time.Millisecond
	}
	p := New(st, scorer.New(nil), site, contact.NewExtractor(nil, site), opts)
	return p, st
}

func strongFirm(crd int, website string) model.Firm {
	return model.Firm{
		CRD:        crd,
		Company:    "Summit Wealth Partners",
		State:      "NY",
		Phone:      "212-555-0100",
		Website:    website,
		Registered: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Employees:  12,
		Clients:    150,
		AUM:        500_000_000,
	}
}

func TestScoreAllAndEnrich(t *testing.T) {
	pages := map[string]string{
		"https://summit.example": `<html><body>
			<p>Wealth management with a compliance first mindset.</p>
			<p>Jane Doe, Chief Compliance Officer</p>
			<p>jane.doe@summit.example</p>
		</body></html>`,
	}
	p, st := newTestPipeline(t, pages, Options{FetchWebsites: true, MinScore: 10})
	ctx := context.Background()

	firms := []model.Firm{
		strongFirm(1, "https://summit.example"),
		{CRD: 2, Company: "Thin Data Sole Prop"}, // scores N/A
	}
	_, err := st.UpsertFirms(ctx, firms)
	require.NoError(t, err)

	stats, err := p.ScoreAll(ctx, firms)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Firms)
	assert.Equal(t, 1, stats.Scored)
	assert.Equal(t, 1, stats.NACount)

	score, _, found, err := st.GetScore(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, score.Valid)
	assert.Greater(t, score.Value, 40)

	enriched, err := p.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)

	c, err := st.GetContact(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane.doe@summit.example", c.Email)

	// The N/A firm is never enriched.
	c, err = st.GetContact(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestScoreAllUsesCache(t *testing.T) {
	p, st := newTestPipeline(t, nil, Options{})
	ctx := context.Background()

	firm := strongFirm(1, "")
	_, err := st.UpsertFirms(ctx, []model.Firm{firm})
	require.NoError(t, err)
	require.NoError(t, st.SaveScore(ctx, 1, model.ScoreOf(77), nil))

	stats, err := p.ScoreAll(ctx, []model.Firm{firm})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scored)

	score, _, _, err := st.GetScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 77, score.Value)
}

func TestScoreAllForceRecomputes(t *testing.T) {
	p, st := newTestPipeline(t, nil, Options{Force: true})
	ctx := context.Background()

	firm := strongFirm(1, "")
	_, err := st.UpsertFirms(ctx, []model.Firm{firm})
	require.NoError(t, err)
	require.NoError(t, st.SaveScore(ctx, 1, model.ScoreOf(77), nil))

	_, err = p.ScoreAll(ctx, []model.Firm{firm})
	require.NoError(t, err)

	score, _, _, err := st.GetScore(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, 77, score.Value)
}

func TestEnrichAllSkipsAttemptedFirms(t *testing.T) {
	p, st := newTestPipeline(t, nil, Options{MinScore: 10})
	ctx := context.Background()

	firm := strongFirm(1, "https://unreachable.example")
	_, err := st.UpsertFirms(ctx, []model.Firm{firm})
	require.NoError(t, err)
	require.NoError(t, st.SaveScore(ctx, 1, model.ScoreOf(50), nil))
	// A previous run already attempted this firm and found nothing.
	require.NoError(t, st.SaveContact(ctx, 1, model.Contact{}))

	enriched, err := p.EnrichAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, enriched)
}

func TestRunFinishesRunRecord(t *testing.T) {
	p, st := newTestPipeline(t, nil, Options{MinScore: 10})
	ctx := context.Background()

	snap := &registry.Snapshot{
		Firms:        []model.Firm{strongFirm(1, "")},
		SnapshotDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		SourceURL:    "https://example.com/ia020126.zip",
	}
	run, firms, err := p.Ingest(ctx, snap, 30)
	require.NoError(t, err)
	require.Len(t, firms, 1)

	stats, err := p.Run(ctx, run, firms)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scored)

	stored, err := st.GetFirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Summit Wealth Partners", stored.Company)
}

func TestScoreAllCancelled(t *testing.T) {
	p, _ := newTestPipeline(t, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ScoreAll(ctx, []model.Firm{strongFirm(1, "")})
	assert.Error(t, err)
}
