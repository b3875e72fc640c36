// Package archive persists completed runs to a project-local SQLite
// database (.arbiter/runs.db) so past executions can be inspected later.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// RunRecord is a persisted summary of one plan execution.
type RunRecord struct {
	ID         string
	Goal       string
	Status     string
	Answer     string
	NodeCount  int
	ElapsedMs  int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// NodeRecord is a persisted summary of one node within a run.
type NodeRecord struct {
	RunID       string
	TaskID      string
	Title       string
	Status      models.TaskStatus
	WinnerID    string
	Retries     int
	Error       string
	CompletedAt *time.Time
}

// Archive wraps an SQLite database holding run history.
type Archive struct {
	conn *sql.DB
	path string
}

// ProjectDBPath returns the path to the project-local run archive.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".arbiter", "runs.db")
}

// Open opens the run archive at the given path, creating parent
// directories and the schema as needed.
func Open(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	a := &Archive{conn: conn, path: path}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// Path returns the path to the archive file.
func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) migrate() error {
	_, err := a.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			goal TEXT NOT NULL,
			status TEXT NOT NULL,
			answer TEXT,
			node_count INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_nodes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			task_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			winner_id TEXT,
			retries INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			completed_at TEXT,
			PRIMARY KEY (run_id, task_id)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_run_nodes_run_id ON run_nodes(run_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate archive schema: %w", err)
	}
	return nil
}

// SaveRun records a finished plan and the terminal state of each of its
// nodes in a single transaction.
func (a *Archive) SaveRun(ctx context.Context, run *RunRecord, plan *models.Plan) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run record must have an id")
	}

	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, goal, status, answer, node_count, elapsed_ms, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Goal, run.Status, run.Answer, len(plan.Tasks), run.ElapsedMs,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	for _, task := range plan.Tasks {
		winnerID := ""
		if task.Outcome != nil {
			winnerID = task.Outcome.WinnerID
		}
		var completedAt any
		if task.CompletedAt != nil {
			completedAt = formatTime(*task.CompletedAt)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO run_nodes
				(run_id, task_id, title, status, winner_id, retries, error, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, task.ID, task.Title, string(task.Status), winnerID,
			task.RetryCount, task.Error, completedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert run node %s: %w", task.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun returns a single run by id, or nil if not found.
func (a *Archive) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := a.conn.QueryRowContext(ctx, `
		SELECT id, goal, status, answer, node_count, elapsed_ms, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.conn.QueryContext(ctx, `
		SELECT id, goal, status, answer, node_count, elapsed_ms, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// NodesForRun returns the node records for a run in insertion order.
func (a *Archive) NodesForRun(ctx context.Context, runID string) ([]*NodeRecord, error) {
	rows, err := a.conn.QueryContext(ctx, `
		SELECT run_id, task_id, title, status, winner_id, retries, error, completed_at
		FROM run_nodes WHERE run_id = ? ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*NodeRecord
	for rows.Next() {
		var n NodeRecord
		var status string
		var winnerID, errMsg, completedAt sql.NullString
		if err := rows.Scan(&n.RunID, &n.TaskID, &n.Title, &status,
			&winnerID, &n.Retries, &errMsg, &completedAt); err != nil {
			return nil, fmt.Errorf("scan run node: %w", err)
		}
		n.Status = models.TaskStatus(status)
		n.WinnerID = winnerID.String
		n.Error = errMsg.String
		if completedAt.Valid {
			if t, err := parseTime(completedAt.String); err == nil {
				n.CompletedAt = &t
			}
		}
		nodes = append(nodes, &n)
	}
	return nodes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var answer sql.NullString
	var startedAt, finishedAt string
	err := row.Scan(&rec.ID, &rec.Goal, &rec.Status, &answer, &rec.NodeCount,
		&rec.ElapsedMs, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	rec.Answer = answer.String
	if rec.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = parseTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
