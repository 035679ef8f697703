package storage

import (
	"context"
	"database/sql"
	"fmt"

	"sift/internal/descriptor"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite snapshot database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT,
			root_uid TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			run_id INTEGER NOT NULL,
			uid TEXT NOT NULL,
			parent_uid TEXT,
			segment_type TEXT NOT NULL,
			display_name TEXT NOT NULL,
			is_root INTEGER NOT NULL,
			is_container INTEGER NOT NULL,
			is_test INTEGER NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (run_id, uid),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_run ON nodes(run_id, position);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun writes the full tree in one transaction. Nodes are stored in the
// depth-first walk order so a load in position order reproduces the walk.
func (s *SQLiteStore) SaveRun(ctx context.Context, label string, root descriptor.Descriptor) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (label, root_uid) VALUES (?, ?)`,
		label, root.UniqueID().String())
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (run_id, uid, parent_uid, segment_type, display_name, is_root, is_container, is_test, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	position := 0
	var walkErr error
	descriptor.Walk(root, func(d descriptor.Descriptor) bool {
		parentUID := ""
		if d.Parent() != nil {
			parentUID = d.Parent().UniqueID().String()
		}
		_, walkErr = stmt.ExecContext(ctx,
			runID,
			d.UniqueID().String(),
			parentUID,
			d.UniqueID().Last().Type,
			d.DisplayName(),
			d.IsRoot(),
			d.IsContainer(),
			d.IsTest(),
			position,
		)
		position++
		return walkErr == nil
	})
	if walkErr != nil {
		return 0, walkErr
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (s *SQLiteStore) LoadRun(ctx context.Context, runID int64) ([]StoredNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, parent_uid, segment_type, display_name, is_root, is_container, is_test, position
		FROM nodes WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var out []StoredNode
	for rows.Next() {
		var n StoredNode
		if err := rows.Scan(&n.UID, &n.ParentUID, &n.SegmentType, &n.DisplayName, &n.IsRoot, &n.IsContainer, &n.IsTest, &n.Position); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.root_uid, r.created_at, COUNT(n.uid)
		FROM runs r LEFT JOIN nodes n ON n.run_id = r.id
		GROUP BY r.id ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Label, &info.RootID, &info.CreatedAt, &info.NodeCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
