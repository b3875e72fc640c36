// Package experience persists reflection records and serves related
// past lessons. The store is external to the orchestration core: the
// core only issues idempotent-intent writes and keyword lookups.
package experience

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Store is the experience-store contract the core depends on.
type Store interface {
	// Put persists a reflection record. Writing the same record id
	// twice is an overwrite, not an error.
	Put(ctx context.Context, rec *models.ReflectionRecord) error
	// QueryRelated returns records whose goal or lessons share
	// keywords with the given context, best matches first.
	QueryRelated(ctx context.Context, related string, limit int) ([]*models.ReflectionRecord, error)
}

// DefaultDBPath returns the path to the arbiter experience database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "arbiter", "experience.db")
}

// SQLiteStore is the SQLite-backed experience store.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open opens (creating if necessary) the experience database at path
// and runs migrations. WAL mode is enabled for concurrent reads.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: conn, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS reflections (
			id             TEXT PRIMARY KEY,
			plan_id        TEXT NOT NULL,
			goal           TEXT NOT NULL,
			classification TEXT NOT NULL DEFAULT '',
			risks          TEXT NOT NULL DEFAULT '[]',
			lessons        TEXT NOT NULL DEFAULT '[]',
			created_at     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reflections_plan ON reflections(plan_id);
		CREATE INDEX IF NOT EXISTS idx_reflections_created ON reflections(created_at);
	`)
	return err
}

// Put persists a reflection record, replacing any previous version.
func (s *SQLiteStore) Put(ctx context.Context, rec *models.ReflectionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("reflection record with id is required")
	}

	risks, err := json.Marshal(rec.Risks)
	if err != nil {
		return fmt.Errorf("marshal risks: %w", err)
	}
	lessons, err := json.Marshal(rec.Lessons)
	if err != nil {
		return fmt.Errorf("marshal lessons: %w", err)
	}

	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reflections (id, plan_id, goal, classification, risks, lessons, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.PlanID, rec.Goal, string(rec.Classification), string(risks), string(lessons), formatTime(created))
	if err != nil {
		return fmt.Errorf("insert reflection: %w", err)
	}
	return nil
}

// Get returns a record by id, or nil if not found.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.ReflectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, plan_id, goal, classification, risks, lessons, created_at
		FROM reflections WHERE id = ?
	`, id)

	rec, err := scanReflection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// List returns the most recent records up to limit.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*models.ReflectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, goal, classification, risks, lessons, created_at
		FROM reflections
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var out []*models.ReflectionRecord
	for rows.Next() {
		rec, err := scanReflection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReflection(row rowScanner) (*models.ReflectionRecord, error) {
	var rec models.ReflectionRecord
	var classification, risks, lessons, createdAt string

	if err := row.Scan(&rec.ID, &rec.PlanID, &rec.Goal, &classification, &risks, &lessons, &createdAt); err != nil {
		return nil, err
	}

	rec.Classification = models.OutcomeClass(classification)
	if err := json.Unmarshal([]byte(risks), &rec.Risks); err != nil {
		return nil, fmt.Errorf("unmarshal risks: %w", err)
	}
	if err := json.Unmarshal([]byte(lessons), &rec.Lessons); err != nil {
		return nil, fmt.Errorf("unmarshal lessons: %w", err)
	}

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
