package cache

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ppiankov/worldclock/internal/model"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a SQLite table, one row per page
type SQLiteStore struct {
	db *sql.DB
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS city_data (
	id           TEXT PRIMARY KEY,
	page_uri     TEXT NOT NULL,
	count        INTEGER NOT NULL,
	last_updated TEXT NOT NULL,
	city_times   TEXT NOT NULL
);
`

// NewSQLiteStore opens the database at dsn and creates the table if needed
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

// LoadAll reads every row
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]model.PageSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, page_uri, count, last_updated, city_times FROM city_data`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query snapshots")
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.PageSnapshot)
	for rows.Next() {
		var (
			name      string
			snap      model.PageSnapshot
			cityTimes string
		)
		if err := rows.Scan(&name, &snap.SourceURI, &snap.Count, &snap.LastUpdated, &cityTimes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snap.Records = model.NewRecordSet(model.SortByName)
		if err := json.Unmarshal([]byte(cityTimes), snap.Records); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode city times for %s", name)
		}
		out[name] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate snapshots")
	}
	return out, nil
}

// ReplaceAll deletes and reinserts every row in one transaction
func (s *SQLiteStore) ReplaceAll(ctx context.Context, snapshots map[string]model.PageSnapshot) error {
	stamped := stampAll(snapshots, nowFunc())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM city_data`); err != nil {
		return eris.Wrap(err, "sqlite: clear snapshots")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO city_data (id, page_uri, count, last_updated, city_times) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	for name, snap := range stamped {
		cityTimes, err := json.Marshal(snap.Records)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode city times for %s", name)
		}
		if _, err := stmt.ExecContext(ctx, name, snap.SourceURI, snap.Count, snap.LastUpdated, string(cityTimes)); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s", name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
