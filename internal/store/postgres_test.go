package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeone-ai/ria-pipeline/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresWithPool(mock), mock
}

func TestPostgresSaveScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scores`).
		WithArgs(333001, 42, false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveScore(context.Background(), 333001,
		model.ScoreOf(42), []model.Reason{{Factor: "has_website", Points: 8}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveScoreNA(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scores`).
		WithArgs(333001, nil, true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveScore(context.Background(), 333001, model.ScoreNA(), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	value := 73
	mock.ExpectQuery(`SELECT score, is_na, reasons FROM scores`).
		WithArgs(333001).
		WillReturnRows(pgxmock.NewRows([]string{"score", "is_na", "reasons"}).
			AddRow(&value, false, []byte(`[{"factor":"has_website","points":8}]`)))

	score, reasons, found, err := s.GetScore(context.Background(), 333001)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 73, score.Value)
	require.Len(t, reasons, 1)
	assert.Equal(t, "has_website", reasons[0].Factor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetScoreMissing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT score, is_na, reasons FROM scores`).
		WithArgs(999).
		WillReturnRows(pgxmock.NewRows([]string{"score", "is_na", "reasons"}))

	_, _, found, err := s.GetScore(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresSaveContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO contacts`).
		WithArgs(333001, "Jane Doe", "jane.doe@acme.com", "CCO", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveContact(context.Background(), 333001,
		model.Contact{Name: "Jane Doe", Email: "jane.doe@acme.com", Title: "CCO"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFinishRunMissing(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET finished_at`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "no-such-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "no-such-run", model.RunStats{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUpsertFirmsEmpty(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	n, err := s.UpsertFirms(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
