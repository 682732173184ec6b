package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/awardcheck/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input_path  TEXT NOT NULL,
	output_path TEXT NOT NULL,
	column_name TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	total_rows  INTEGER NOT NULL DEFAULT 0,
	processed   INTEGER NOT NULL DEFAULT 0,
	found       INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS row_results (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	row_index  INTEGER NOT NULL,
	company    TEXT NOT NULL,
	status     TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	checked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_row_results_run_id ON row_results(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, inputPath, outputPath, column string, totalRows int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, column_name, status, total_rows, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inputPath, outputPath, column, string(model.RunStatusRunning), totalRows, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:         id,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Column:     column,
		Status:     model.RunStatusRunning,
		TotalRows:  totalRows,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, processed, found int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, processed = ?, found = ?, updated_at = ? WHERE id = ?`,
		string(status), processed, found, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_path, output_path, column_name, status, total_rows, processed, found, created_at, updated_at
		 FROM runs WHERE id = ?`,
		runID,
	)

	var r model.Run
	var status string
	err := row.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Column, &status,
		&r.TotalRows, &r.Processed, &r.Found, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: get run %s: not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	r.Status = model.RunStatus(status)
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input_path, output_path, column_name, status, total_rows, processed, found, created_at, updated_at
		 FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var status string
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Column, &status,
			&r.TotalRows, &r.Processed, &r.Found, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = model.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) RecordRow(ctx context.Context, runID string, row model.RowResult) error {
	id := uuid.New().String()
	checkedAt := row.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO row_results (id, run_id, row_index, company, status, outcome, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, runID, row.RowIndex, row.Company, row.Status, row.Outcome, checkedAt,
	)
	return eris.Wrap(err, "sqlite: insert row result")
}

func (s *SQLiteStore) ListRowResults(ctx context.Context, runID string) ([]model.RowResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, row_index, company, status, outcome, checked_at
		 FROM row_results WHERE run_id = ? ORDER BY row_index`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list row results")
	}
	defer rows.Close()

	var results []model.RowResult
	for rows.Next() {
		var r model.RowResult
		if err := rows.Scan(&r.ID, &r.RunID, &r.RowIndex, &r.Company, &r.Status, &r.Outcome, &r.CheckedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row result")
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate row results")
}
