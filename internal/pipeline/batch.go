// Package pipeline orchestrates the batch stages: snapshot ingestion,
// fit scoring, and contact enrichment. Stages run sequentially over the
// firm list; per-firm failures are logged and skipped, never fatal.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/surgeone-ai/ria-pipeline/internal/contact"
	"github.com/surgeone-ai/ria-pipeline/internal/model"
	"github.com/surgeone-ai/ria-pipeline/internal/registry"
	"github.com/surgeone-ai/ria-pipeline/internal/scorer"
	"github.com/surgeone-ai/ria-pipeline/internal/scrape"
	"github.com/surgeone-ai/ria-pipeline/internal/store"
)

// Options tunes batch behavior.
type Options struct {
	FetchWebsites bool          // fetch homepages during scoring
	ScoreDelay    time.Duration // pause after each website fetch while scoring
	FirmDelay     time.Duration // pause between firms during enrichment
	MinScore      int           // enrichment cutoff; N/A firms are never enriched
	Force         bool          // recompute cached scores and contacts
}

// Pipeline wires the stages over a shared store.
type Pipeline struct {
	store     store.Store
	scorer    *scorer.Scorer
	site      *scrape.Site
	extractor *contact.Extractor
	opts      Options
}

// New creates a Pipeline.
func New(st store.Store, sc *scorer.Scorer, site *scrape.Site, ex *contact.Extractor, opts Options) *Pipeline {
	return &Pipeline{store: st, scorer: sc, site: site, extractor: ex, opts: opts}
}

// Ingest stores a registry snapshot's recent firms and opens a run record.
func (p *Pipeline) Ingest(ctx context.Context, snap *registry.Snapshot, daysBack int) (*model.Run, []model.Firm, error) {
	firms := snap.Recent(daysBack)

	n, err := p.store.UpsertFirms(ctx, firms)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: store firms")
	}
	zap.L().Info("pipeline: firms ingested",
		zap.Int64("stored", n),
		zap.Int("skipped_rows", snap.Skipped),
	)

	run, err := p.store.CreateRun(ctx, snap.SourceURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: create run")
	}
	return run, firms, nil
}

// ScoreAll scores every firm, reusing cached scores unless Force is set.
// Website fetches are spaced by ScoreDelay. Returns counts; the only
// error returned is cancellation.
func (p *Pipeline) ScoreAll(ctx context.Context, firms []model.Firm) (model.RunStats, error) {
	var stats model.RunStats
	stats.Firms = len(firms)

	for i := range firms {
		firm := &firms[i]
		if err := ctx.Err(); err != nil {
			return stats, eris.Wrap(err, "pipeline: scoring cancelled")
		}
		log := zap.L().With(zap.Int("crd", firm.CRD), zap.String("company", firm.Company))

		if !p.opts.Force {
			if cached, _, found, err := p.store.GetScore(ctx, firm.CRD); err != nil {
				log.Warn("pipeline: score cache read failed", zap.Error(err))
			} else if found {
				countScore(&stats, cached)
				continue
			}
		}

		websiteText := ""
		if p.opts.FetchWebsites && firm.HasWebsite() {
			if page, err := p.site.Homepage(ctx, firm.WebsiteURL()); err != nil {
				log.Debug("pipeline: website unreachable", zap.Error(err))
			} else {
				websiteText = page.Text
			}
			select {
			case <-time.After(p.opts.ScoreDelay):
			case <-ctx.Done():
				return stats, eris.Wrap(ctx.Err(), "pipeline: scoring cancelled")
			}
		}

		score, reasons := p.scorer.Score(firm, websiteText)
		if err := p.store.SaveScore(ctx, firm.CRD, score, reasons); err != nil {
			log.Warn("pipeline: save score failed", zap.Error(err))
			stats.Skipped++
			continue
		}
		countScore(&stats, score)
		log.Debug("pipeline: scored", zap.String("score", score.String()))
	}

	zap.L().Info("pipeline: scoring complete",
		zap.Int("scored", stats.Scored),
		zap.Int("na", stats.NACount),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func countScore(stats *model.RunStats, score model.Score) {
	if score.Valid {
		stats.Scored++
	} else {
		stats.NACount++
	}
}

// EnrichAll discovers contacts for scored firms at or above MinScore,
// reusing cached contacts unless Force is set. Firms are processed
// sequentially with FirmDelay between them.
func (p *Pipeline) EnrichAll(ctx context.Context) (int, error) {
	minScore := p.opts.MinScore
	records, err := p.store.ListEnriched(ctx, store.ListFilter{MinScore: &minScore})
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: list scored firms")
	}

	enriched := 0
	for i := range records {
		rec := &records[i]
		if err := ctx.Err(); err != nil {
			return enriched, eris.Wrap(err, "pipeline: enrichment cancelled")
		}
		log := zap.L().With(zap.Int("crd", rec.CRD), zap.String("company", rec.Company))

		if !p.opts.Force && !rec.Contact.Empty() {
			enriched++
			continue
		}
		if !p.opts.Force {
			// An existing row, even an empty one, means this firm was
			// already attempted.
			if cached, err := p.store.GetContact(ctx, rec.CRD); err != nil {
				log.Warn("pipeline: contact cache read failed", zap.Error(err))
			} else if cached != nil {
				if !cached.Empty() {
					enriched++
				}
				continue
			}
		}

		c := p.extractor.Extract(ctx, &rec.Firm)
		if err := p.store.SaveContact(ctx, rec.CRD, c); err != nil {
			log.Warn("pipeline: save contact failed", zap.Error(err))
		} else if !c.Empty() {
			enriched++
		}

		if i < len(records)-1 {
			select {
			case <-time.After(p.opts.FirmDelay):
			case <-ctx.Done():
				return enriched, eris.Wrap(ctx.Err(), "pipeline: enrichment cancelled")
			}
		}
	}

	zap.L().Info("pipeline: enrichment complete", zap.Int("enriched", enriched))
	return enriched, nil
}

// Run executes the full batch: score every firm, then enrich the ones
// above the cutoff, then close the run record.
func (p *Pipeline) Run(ctx context.Context, run *model.Run, firms []model.Firm) (model.RunStats, error) {
	stats, err := p.ScoreAll(ctx, firms)
	if err != nil {
		return stats, err
	}

	stats.Enriched, err = p.EnrichAll(ctx)
	if err != nil {
		return stats, err
	}

	if run != nil {
		if err := p.store.FinishRun(ctx, run.ID, stats); err != nil {
			zap.L().Warn("pipeline: finish run failed", zap.Error(err))
		}
	}
	return stats, nil
}
