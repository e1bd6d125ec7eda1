package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a tuned connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// newPostgresWithPool wires an existing pool, used by tests.
func newPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS firms (
	crd        BIGINT PRIMARY KEY,
	company    TEXT NOT NULL,
	legal_name TEXT,
	city       TEXT,
	state      TEXT,
	phone      TEXT,
	website    TEXT,
	registered TIMESTAMPTZ,
	status     TEXT,
	employees  INTEGER NOT NULL DEFAULT 0,
	clients    INTEGER NOT NULL DEFAULT 0,
	aum        BIGINT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scores (
	crd       BIGINT PRIMARY KEY REFERENCES firms(crd),
	score     INTEGER,
	is_na     BOOLEAN NOT NULL DEFAULT FALSE,
	reasons   JSONB,
	scored_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	crd         BIGINT PRIMARY KEY REFERENCES firms(crd),
	name        TEXT,
	email       TEXT,
	title       TEXT,
	enriched_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id          UUID PRIMARY KEY,
	source_url  TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	stats       JSONB
);

CREATE INDEX IF NOT EXISTS idx_firms_state ON firms(state);
CREATE INDEX IF NOT EXISTS idx_firms_registered ON firms(registered);
CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgUpsertFirm = `
	INSERT INTO firms (crd, company, legal_name, city, state, phone, website,
		registered, status, employees, clients, aum, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (crd) DO UPDATE SET
		company = EXCLUDED.company, legal_name = EXCLUDED.legal_name,
		city = EXCLUDED.city, state = EXCLUDED.state,
		phone = EXCLUDED.phone, website = EXCLUDED.website,
		registered = EXCLUDED.registered, status = EXCLUDED.status,
		employees = EXCLUDED.employees, clients = EXCLUDED.clients,
		aum = EXCLUDED.aum, updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) UpsertFirms(ctx context.Context, firms []model.Firm) (int64, error) {
	if len(firms) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, f := range firms {
		batch.Queue(pgUpsertFirm,
			f.CRD, f.Company, f.LegalName, f.City, f.State, f.Phone, f.Website,
			nullTime(f.Registered), f.Status, f.Employees, f.Clients, f.AUM, now)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close() //nolint:errcheck

	var n int64
	for range firms {
		if _, err := results.Exec(); err != nil {
			return n, eris.Wrap(err, "postgres: upsert firm")
		}
		n++
	}
	return n, nil
}

const pgFirmColumns = `crd, company, legal_name, city, state, phone, website,
	registered, status, employees, clients, aum`

func (s *PostgresStore) GetFirm(ctx context.Context, crd int) (*model.Firm, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgFirmColumns+` FROM firms WHERE crd = $1`, crd)
	firm, err := scanPgFirm(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get firm %d", crd)
	}
	return firm, nil
}

func (s *PostgresStore) ListFirms(ctx context.Context, limit, offset int) ([]model.Firm, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgFirmColumns+` FROM firms ORDER BY registered DESC NULLS LAST, crd LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list firms")
	}
	defer rows.Close()

	var firms []model.Firm
	for rows.Next() {
		firm, err := scanPgFirm(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan firm")
		}
		firms = append(firms, *firm)
	}
	return firms, eris.Wrap(rows.Err(), "postgres: list firms")
}

func (s *PostgresStore) SaveScore(ctx context.Context, crd int, score model.Score, reasons []model.Reason) error {
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal reasons")
	}

	var value any
	if score.Valid {
		value = score.Value
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scores (crd, score, is_na, reasons, scored_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (crd) DO UPDATE SET
			score = EXCLUDED.score, is_na = EXCLUDED.is_na,
			reasons = EXCLUDED.reasons, scored_at = EXCLUDED.scored_at`,
		crd, value, !score.Valid, reasonsJSON, time.Now().UTC())
	return eris.Wrapf(err, "postgres: save score %d", crd)
}

func (s *PostgresStore) GetScore(ctx context.Context, crd int) (model.Score, []model.Reason, bool, error) {
	var value *int
	var isNA bool
	var reasonsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT score, is_na, reasons FROM scores WHERE crd = $1`, crd,
	).Scan(&value, &isNA, &reasonsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Score{}, nil, false, nil
	}
	if err != nil {
		return model.Score{}, nil, false, eris.Wrapf(err, "postgres: get score %d", crd)
	}

	score := model.ScoreNA()
	if !isNA && value != nil {
		score = model.ScoreOf(*value)
	}
	reasons, err := unmarshalReasons(string(reasonsJSON))
	if err != nil {
		return model.Score{}, nil, false, eris.Wrapf(err, "postgres: decode reasons %d", crd)
	}
	return score, reasons, true, nil
}

func (s *PostgresStore) SaveContact(ctx context.Context, crd int, contact model.Contact) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (crd, name, email, title, enriched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (crd) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email,
			title = EXCLUDED.title, enriched_at = EXCLUDED.enriched_at`,
		crd, contact.Name, contact.Email, contact.Title, time.Now().UTC())
	return eris.Wrapf(err, "postgres: save contact %d", crd)
}

func (s *PostgresStore) GetContact(ctx context.Context, crd int) (*model.Contact, error) {
	var c model.Contact
	err := s.pool.QueryRow(ctx,
		`SELECT name, email, title FROM contacts WHERE crd = $1`, crd,
	).Scan(&c.Name, &c.Email, &c.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get contact %d", crd)
	}
	return &c, nil
}

func (s *PostgresStore) ListEnriched(ctx context.Context, filter ListFilter) ([]model.EnrichedFirm, error) {
	query := `
		SELECT f.crd, f.company, f.legal_name, f.city, f.state, f.phone, f.website,
			f.registered, f.status, f.employees, f.clients, f.aum,
			s.score, s.is_na, s.reasons,
			c.name, c.email, c.title
		FROM firms f
		LEFT JOIN scores s ON s.crd = f.crd
		LEFT JOIN contacts c ON c.crd = f.crd
		WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.MinScore != nil {
		query += ` AND s.is_na = FALSE AND s.score >= ` + arg(*filter.MinScore)
	} else if !filter.IncludeNA {
		query += ` AND (s.is_na IS NULL OR s.is_na = FALSE)`
	}
	if len(filter.States) > 0 {
		upper := make([]string, len(filter.States))
		for i, st := range filter.States {
			upper[i] = strings.ToUpper(st)
		}
		query += ` AND f.state = ANY(` + arg(upper) + `)`
	}

	query += ` ORDER BY s.score DESC NULLS LAST, f.crd`
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ` + arg(limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list enriched")
	}
	defer rows.Close()

	var out []model.EnrichedFirm
	for rows.Next() {
		var e model.EnrichedFirm
		var legalName, city, state, phone, website, status *string
		var registered *time.Time
		var score *int
		var isNA *bool
		var reasonsJSON []byte
		var cName, cEmail, cTitle *string

		if err := rows.Scan(
			&e.CRD, &e.Company, &legalName, &city, &state, &phone, &website,
			&registered, &status, &e.Employees, &e.Clients, &e.AUM,
			&score, &isNA, &reasonsJSON,
			&cName, &cEmail, &cTitle,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan enriched")
		}

		e.LegalName, e.City, e.State = deref(legalName), deref(city), deref(state)
		e.Phone, e.Website, e.Status = deref(phone), deref(website), deref(status)
		if registered != nil {
			e.Registered = *registered
		}
		if isNA != nil {
			if *isNA {
				e.FitScore = model.ScoreNA()
			} else if score != nil {
				e.FitScore = model.ScoreOf(*score)
			}
			reasons, err := unmarshalReasons(string(reasonsJSON))
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: decode reasons %d", e.CRD)
			}
			e.FitReasons = reasons
		}
		e.Contact = model.Contact{Name: deref(cName), Email: deref(cEmail), Title: deref(cTitle)}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list enriched")
}

func (s *PostgresStore) CreateRun(ctx context.Context, sourceURL string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source_url, started_at) VALUES ($1, $2, $3)`,
		run.ID, run.SourceURL, run.StartedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create run")
	}
	return run, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET finished_at = $1, stats = $2 WHERE id = $3`,
		time.Now().UTC(), statsJSON, runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPgFirm(row pgx.Row) (*model.Firm, error) {
	var f model.Firm
	var legalName, city, state, phone, website, status *string
	var registered *time.Time

	err := row.Scan(&f.CRD, &f.Company, &legalName, &city, &state, &phone,
		&website, &registered, &status, &f.Employees, &f.Clients, &f.AUM)
	if err != nil {
		return nil, err
	}
	f.LegalName, f.City, f.State = deref(legalName), deref(city), deref(state)
	f.Phone, f.Website, f.Status = deref(phone), deref(website), deref(status)
	if registered != nil {
		f.Registered = *registered
	}
	return &f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
