package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/surgeone-ai/ria-pipeline/internal/config"
	"github.com/surgeone-ai/ria-pipeline/internal/contact"
	"github.com/surgeone-ai/ria-pipeline/internal/fetcher"
	"github.com/surgeone-ai/ria-pipeline/internal/pipeline"
	"github.com/surgeone-ai/ria-pipeline/internal/registry"
	"github.com/surgeone-ai/ria-pipeline/internal/scorer"
	"github.com/surgeone-ai/ria-pipeline/internal/scrape"
	"github.com/surgeone-ai/ria-pipeline/internal/store"
	"github.com/surgeone-ai/ria-pipeline/pkg/hunter"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ria-pipeline",
	Short: "Lead pipeline for newly registered investment advisers",
	Long: "Downloads the SEC's monthly adviser registry snapshot, scores newly " +
		"registered firms against a business fit rubric, and enriches the best " +
		"prospects with contacts from their websites and Hunter.io.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initStore opens and migrates the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newLoader builds the snapshot loader over a rate-limited fetcher.
func newLoader() *registry.Loader {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:        cfg.SEC.UserAgent,
		Timeout:          time.Duration(cfg.SEC.TimeoutSecs) * time.Second,
		RateLimiters:     fetcher.DefaultRateLimiters(),
		AdaptiveLimiters: fetcher.DefaultAdaptiveLimiters(),
	})
	return registry.NewLoader(f, registry.Options{
		BaseURL:    cfg.SEC.BaseURL,
		MonthsBack: cfg.SEC.MonthsBack,
		TempDir:    cfg.SEC.TempDir,
	})
}

// newScorer loads the rubric, custom when configured.
func newScorer(rubricPath string) (*scorer.Scorer, error) {
	if rubricPath == "" {
		rubricPath = cfg.Scorer.RubricPath
	}
	if rubricPath == "" {
		return scorer.New(nil), nil
	}
	rubric, err := scorer.LoadRubric(rubricPath)
	if err != nil {
		return nil, err
	}
	return scorer.New(rubric), nil
}

// newSite builds the polite website crawler used by scoring and
// enrichment.
func newSite() *scrape.Site {
	timeout := time.Duration(cfg.Enrich.TimeoutSecs) * time.Second
	return scrape.NewSite(scrape.NewLocalScraper(timeout), scrape.SiteOptions{
		MaxSubpages: cfg.Enrich.MaxSubpages,
		Delay:       time.Duration(cfg.Enrich.SubpageDelayMS) * time.Millisecond,
	})
}

// newExtractor wires the contact extractor. Without a Hunter key the API
// stage is skipped.
func newExtractor(site *scrape.Site) *contact.Extractor {
	var hunterClient hunter.Client
	if cfg.Hunter.Key != "" {
		opts := []hunter.Option{hunter.WithLimit(cfg.Hunter.Limit)}
		if cfg.Hunter.BaseURL != "" {
			opts = append(opts, hunter.WithBaseURL(cfg.Hunter.BaseURL))
		}
		hunterClient = hunter.NewClient(cfg.Hunter.Key, opts...)
	} else {
		zap.L().Info("hunter.io key not configured, using website scraping only")
	}
	return contact.NewExtractor(hunterClient, site)
}

// pipelineOptions builds default batch options from configuration.
func pipelineOptions() pipeline.Options {
	return pipeline.Options{
		FetchWebsites: cfg.Scorer.FetchWebsites,
		MinScore:      cfg.Enrich.MinScore,
	}
}

// newPipeline assembles the batch pipeline from configuration.
func newPipeline(st store.Store, sc *scorer.Scorer, opts pipeline.Options) *pipeline.Pipeline {
	site := newSite()
	if opts.ScoreDelay == 0 {
		opts.ScoreDelay = time.Duration(cfg.Scorer.DelayMS) * time.Millisecond
	}
	if opts.FirmDelay == 0 {
		opts.FirmDelay = time.Duration(cfg.Enrich.FirmDelayMS) * time.Millisecond
	}
	return pipeline.New(st, sc, site, newExtractor(site), opts)
}
