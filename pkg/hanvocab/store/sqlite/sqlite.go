package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/hanvocab/pkg/hanvocab/internalerr"
	"github.com/cognicore/hanvocab/pkg/hanvocab/store"
)

// timeLayout is fixed width so started_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	vocabulary TEXT,
	vocabulary_size INTEGER NOT NULL DEFAULT 0,
	stopword_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_stages (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	tokens_in INTEGER NOT NULL,
	tokens_out INTEGER NOT NULL,
	PRIMARY KEY(run_id, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_entries (
	run_id TEXT NOT NULL,
	rank INTEGER NOT NULL,
	token_index INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(run_id, rank),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts or replaces a run with its stages and entries
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id: %w", internalerr.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so clear children explicitly.
	for _, q := range []string{
		`DELETE FROM run_entries WHERE run_id = ?`,
		`DELETE FROM run_stages WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.ID); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, started_at, vocabulary, vocabulary_size, stopword_count)
VALUES (?, ?, ?, ?, ?)`,
		r.ID,
		r.StartedAt.UTC().Format(timeLayout),
		r.Vocabulary,
		r.VocabularySize,
		r.StopwordCount,
	)
	if err != nil {
		return err
	}

	if len(r.Stages) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_stages (run_id, position, name, tokens_in, tokens_out) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, st := range r.Stages {
			if _, err := stmt.ExecContext(ctx, r.ID, i, st.Name, st.In, st.Out); err != nil {
				return err
			}
		}
	}

	if len(r.Entries) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_entries (run_id, rank, token_index, token) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range r.Entries {
			if _, err := stmt.ExecContext(ctx, r.ID, i, e.Index, e.Token); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetRun returns a run with its stages and entries
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, started_at, vocabulary, vocabulary_size, stopword_count
FROM runs WHERE id = ?`, id)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}

	if r.Stages, err = s.runStages(ctx, id); err != nil {
		return store.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT token_index, token FROM run_entries WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var e store.Entry
		if err := rows.Scan(&e.Index, &e.Token); err != nil {
			return store.Run{}, err
		}
		r.Entries = append(r.Entries, e)
	}
	return r, rows.Err()
}

// ListRuns returns the newest runs first, without entries
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, vocabulary, vocabulary_size, stopword_count
FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if runs[i].Stages, err = s.runStages(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *sqliteStore) runStages(ctx context.Context, id string) ([]store.StageCount, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, tokens_in, tokens_out FROM run_stages WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []store.StageCount
	for rows.Next() {
		var st store.StageCount
		if err := rows.Scan(&st.Name, &st.In, &st.Out); err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r          store.Run
		startedAt  string
		vocabulary sql.NullString
	)
	if err := sc.Scan(&r.ID, &startedAt, &vocabulary, &r.VocabularySize, &r.StopwordCount); err != nil {
		return store.Run{}, err
	}

	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: parse started_at: %w", r.ID, err)
	}
	r.StartedAt = t
	r.Vocabulary = vocabulary.String
	return r, nil
}
