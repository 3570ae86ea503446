package usage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id                TEXT PRIMARY KEY,
    operation         TEXT NOT NULL,
    model             TEXT NOT NULL DEFAULT '',
    prompt_tokens     INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens      INTEGER NOT NULL DEFAULT 0,
    estimated_cost    REAL NOT NULL DEFAULT 0,
    metadata          TEXT NOT NULL DEFAULT '{}',
    created_at        TEXT NOT NULL,
    fetched_at        TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_usage_records_created ON usage_records(created_at);
`

// Store is a local SQLite cache of backend usage records. The backend only
// retains usage events for a limited window, so the CLI keeps everything it
// has ever fetched and serves `linguara usage` from the cache when offline.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the usage cache at dbPath and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	// Enable WAL mode for concurrent reads during a pull
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert caches a record. Records are immutable, so duplicate ids are
// silently ignored and repeated pulls are idempotent.
func (s *Store) Insert(r Record) error {
	metadata, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO usage_records (
			id, operation, model,
			prompt_tokens, completion_tokens, total_tokens,
			estimated_cost, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Operation, r.Model,
		r.PromptTokens, r.CompletionTokens, r.TotalTokens,
		r.EstimatedCost, string(metadata), r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// InsertAll caches a batch of records inside one transaction.
func (s *Store) InsertAll(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO usage_records (
			id, operation, model,
			prompt_tokens, completion_tokens, total_tokens,
			estimated_cost, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadata, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		if _, err := stmt.Exec(
			r.ID, r.Operation, r.Model,
			r.PromptTokens, r.CompletionTokens, r.TotalTokens,
			r.EstimatedCost, string(metadata), r.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// List returns cached records ordered oldest first.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT id, operation, model,
		       prompt_tokens, completion_tokens, total_tokens,
		       estimated_cost, metadata, created_at
		FROM usage_records
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var metadata, createdAt string
		if err := rows.Scan(
			&r.ID, &r.Operation, &r.Model,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens,
			&r.EstimatedCost, &metadata, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if metadata != "" && metadata != "{}" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
				return nil, fmt.Errorf("parse metadata for %s: %w", r.ID, err)
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestCreatedAt returns the newest cached record time, or the zero time
// when the cache is empty. Used as the incremental pull cursor.
func (s *Store) LatestCreatedAt() (time.Time, error) {
	var createdAt sql.NullString
	err := s.db.QueryRow(`SELECT MAX(created_at) FROM usage_records`).Scan(&createdAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("query latest: %w", err)
	}
	if !createdAt.Valid || createdAt.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, createdAt.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse latest created_at: %w", err)
	}
	return t, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
