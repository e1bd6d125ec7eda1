package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS firms (
	crd        INTEGER PRIMARY KEY,
	company    TEXT NOT NULL,
	legal_name TEXT,
	city       TEXT,
	state      TEXT,
	phone      TEXT,
	website    TEXT,
	registered DATETIME,
	status     TEXT,
	employees  INTEGER NOT NULL DEFAULT 0,
	clients    INTEGER NOT NULL DEFAULT 0,
	aum        INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scores (
	crd       INTEGER PRIMARY KEY REFERENCES firms(crd),
	score     INTEGER,
	is_na     INTEGER NOT NULL DEFAULT 0,
	reasons   TEXT,
	scored_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	crd         INTEGER PRIMARY KEY REFERENCES firms(crd),
	name        TEXT,
	email       TEXT,
	title       TEXT,
	enriched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source_url  TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	stats       TEXT
);

CREATE INDEX IF NOT EXISTS idx_firms_state ON firms(state);
CREATE INDEX IF NOT EXISTS idx_firms_registered ON firms(registered);
CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFirms(ctx context.Context, firms []model.Firm) (int64, error) {
	if len(firms) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO firms (crd, company, legal_name, city, state, phone, website,
			registered, status, employees, clients, aum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (crd) DO UPDATE SET
			company = excluded.company, legal_name = excluded.legal_name,
			city = excluded.city, state = excluded.state,
			phone = excluded.phone, website = excluded.website,
			registered = excluded.registered, status = excluded.status,
			employees = excluded.employees, clients = excluded.clients,
			aum = excluded.aum, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for _, f := range firms {
		if _, err := stmt.ExecContext(ctx,
			f.CRD, f.Company, f.LegalName, f.City, f.State, f.Phone, f.Website,
			nullTime(f.Registered), f.Status, f.Employees, f.Clients, f.AUM, now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert firm %d", f.CRD)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit upsert")
	}
	return n, nil
}

const firmColumns = `crd, company, legal_name, city, state, phone, website,
	registered, status, employees, clients, aum`

func (s *SQLiteStore) GetFirm(ctx context.Context, crd int) (*model.Firm, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+firmColumns+` FROM firms WHERE crd = ?`, crd)
	firm, err := scanFirm(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get firm %d", crd)
	}
	return firm, nil
}

func (s *SQLiteStore) ListFirms(ctx context.Context, limit, offset int) ([]model.Firm, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+firmColumns+` FROM firms ORDER BY registered DESC, crd LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list firms")
	}
	defer rows.Close() //nolint:errcheck

	var firms []model.Firm
	for rows.Next() {
		firm, err := scanFirm(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan firm")
		}
		firms = append(firms, *firm)
	}
	return firms, eris.Wrap(rows.Err(), "sqlite: list firms")
}

func (s *SQLiteStore) SaveScore(ctx context.Context, crd int, score model.Score, reasons []model.Reason) error {
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reasons")
	}

	var value any
	isNA := 0
	if score.Valid {
		value = score.Value
	} else {
		isNA = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (crd, score, is_na, reasons, scored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (crd) DO UPDATE SET
			score = excluded.score, is_na = excluded.is_na,
			reasons = excluded.reasons, scored_at = excluded.scored_at`,
		crd, value, isNA, string(reasonsJSON), time.Now().UTC())
	return eris.Wrapf(err, "sqlite: save score %d", crd)
}

func (s *SQLiteStore) GetScore(ctx context.Context, crd int) (model.Score, []model.Reason, bool, error) {
	var value sql.NullInt64
	var isNA int
	var reasonsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT score, is_na, reasons FROM scores WHERE crd = ?`, crd,
	).Scan(&value, &isNA, &reasonsJSON)
	if err == sql.ErrNoRows {
		return model.Score{}, nil, false, nil
	}
	if err != nil {
		return model.Score{}, nil, false, eris.Wrapf(err, "sqlite: get score %d", crd)
	}

	score := model.ScoreNA()
	if isNA == 0 && value.Valid {
		score = model.ScoreOf(int(value.Int64))
	}
	reasons, err := unmarshalReasons(reasonsJSON.String)
	if err != nil {
		return model.Score{}, nil, false, eris.Wrapf(err, "sqlite: decode reasons %d", crd)
	}
	return score, reasons, true, nil
}

func (s *SQLiteStore) SaveContact(ctx context.Context, crd int, contact model.Contact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (crd, name, email, title, enriched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (crd) DO UPDATE SET
			name = excluded.name, email = excluded.email,
			title = excluded.title, enriched_at = excluded.enriched_at`,
		crd, contact.Name, contact.Email, contact.Title, time.Now().UTC())
	return eris.Wrapf(err, "sqlite: save contact %d", crd)
}

func (s *SQLiteStore) GetContact(ctx context.Context, crd int) (*model.Contact, error) {
	var c model.Contact
	err := s.db.QueryRowContext(ctx,
		`SELECT name, email, title FROM contacts WHERE crd = ?`, crd,
	).Scan(&c.Name, &c.Email, &c.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get contact %d", crd)
	}
	return &c, nil
}

func (s *SQLiteStore) ListEnriched(ctx context.Context, filter ListFilter) ([]model.EnrichedFirm, error) {
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

	if filter.MinScore != nil {
		query += ` AND s.is_na = 0 AND s.score >= ?`
		args = append(args, *filter.MinScore)
	} else if !filter.IncludeNA {
		query += ` AND (s.is_na IS NULL OR s.is_na = 0)`
	}
	if len(filter.States) > 0 {
		query += ` AND f.state IN (?` + strings.Repeat(",?", len(filter.States)-1) + `)`
		for _, st := range filter.States {
			args = append(args, strings.ToUpper(st))
		}
	}

	query += ` ORDER BY s.score IS NULL, s.score DESC, f.crd`
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list enriched")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.EnrichedFirm
	for rows.Next() {
		var e model.EnrichedFirm
		var legalName, city, state, phone, website, status sql.NullString
		var registered sql.NullTime
		var score sql.NullInt64
		var isNA sql.NullInt64
		var reasonsJSON, cName, cEmail, cTitle sql.NullString

		if err := rows.Scan(
			&e.CRD, &e.Company, &legalName, &city, &state, &phone, &website,
			&registered, &status, &e.Employees, &e.Clients, &e.AUM,
			&score, &isNA, &reasonsJSON,
			&cName, &cEmail, &cTitle,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan enriched")
		}

		e.LegalName, e.City, e.State = legalName.String, city.String, state.String
		e.Phone, e.Website, e.Status = phone.String, website.String, status.String
		if registered.Valid {
			e.Registered = registered.Time
		}
		if isNA.Valid {
			if isNA.Int64 == 1 {
				e.FitScore = model.ScoreNA()
			} else if score.Valid {
				e.FitScore = model.ScoreOf(int(score.Int64))
			}
			reasons, err := unmarshalReasons(reasonsJSON.String)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode reasons %d", e.CRD)
			}
			e.FitReasons = reasons
		}
		e.Contact = model.Contact{Name: cName.String, Email: cEmail.String, Title: cTitle.String}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list enriched")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, sourceURL string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_url, started_at) VALUES (?, ?, ?)`,
		run.ID, run.SourceURL, run.StartedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create run")
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, stats = ? WHERE id = ?`,
		time.Now().UTC(), string(statsJSON), runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFirm(row rowScanner) (*model.Firm, error) {
	var f model.Firm
	var legalName, city, state, phone, website, status sql.NullString
	var registered sql.NullTime

	err := row.Scan(&f.CRD, &f.Company, &legalName, &city, &state, &phone,
		&website, &registered, &status, &f.Employees, &f.Clients, &f.AUM)
	if err != nil {
		return nil, err
	}
	f.LegalName, f.City, f.State = legalName.String, city.String, state.String
	f.Phone, f.Website, f.Status = phone.String, website.String, status.String
	if registered.Valid {
		f.Registered = registered.Time
	}
	return &f, nil
}

func unmarshalReasons(data string) ([]model.Reason, error) {
	if data == "" || data == "null" {
		return nil, nil
	}
	var reasons []model.Reason
	if err := json.Unmarshal([]byte(data), &reasons); err != nil {
		return nil, err
	}
	return reasons, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
