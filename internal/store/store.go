// Package store persists firms, fit scores, and contacts, keyed by CRD.
// Two backends exist: SQLite for single-user CLI runs and Postgres for a
// shared deployment.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/surgeone-ai/ria-pipeline/internal/config"
	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// ListFilter narrows enriched-record listings.
type ListFilter struct {
	MinScore  *int     `json:"min_score,omitempty"` // excludes N/A records
	States    []string `json:"states,omitempty"`
	IncludeNA bool     `json:"include_na,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
}

// Store is the persistence interface for the pipeline. Scores and
// contacts act as a per-CRD result cache: entries are only ever added or
// overwritten within a run, never partially mutated.
type Store interface {
	// Firms
	UpsertFirms(ctx context.Context, firms []model.Firm) (int64, error)
	GetFirm(ctx context.Context, crd int) (*model.Firm, error)
	ListFirms(ctx context.Context, limit, offset int) ([]model.Firm, error)

	// Scores
	SaveScore(ctx context.Context, crd int, score model.Score, reasons []model.Reason) error
	GetScore(ctx context.Context, crd int) (model.Score, []model.Reason, bool, error)

	// Contacts
	SaveContact(ctx context.Context, crd int, contact model.Contact) error
	GetContact(ctx context.Context, crd int) (*model.Contact, error)

	// Combined view, scored records first (highest score leading), N/A
	// and unscored records last.
	ListEnriched(ctx context.Context, filter ListFilter) ([]model.EnrichedFirm, error)

	// Runs
	CreateRun(ctx context.Context, sourceURL string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, stats model.RunStats) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrNotFound is returned by point lookups when no row exists.
var ErrNotFound = eris.New("store: not found")

// Open selects a backend from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DSN)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
