package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS plans (
    figma_id TEXT PRIMARY KEY,
    value JSON NOT NULL,
    updated_at DATETIME NOT NULL
);
`

// SQLiteStore keeps plans in a local SQLite file, one JSON row per figma id.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, figmaID string) (*Plan, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM plans WHERE figma_id = ?`, figmaID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", figmaID, err)
	}
	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", figmaID, err)
	}
	return &p, nil
}

func (s *SQLiteStore) Put(ctx context.Context, plan *Plan) error {
	if err := Validate(plan); err != nil {
		return err
	}
	plan.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (figma_id, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(figma_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		plan.FigmaID, raw, plan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put plan %s: %w", plan.FigmaID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, figmaID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE figma_id = ?`, figmaID)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", figmaID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Plan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value FROM plans ORDER BY figma_id`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []*Plan
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		var p Plan
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
