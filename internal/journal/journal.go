// Package journal appends every good readings snapshot to a local SQLite
// database so the history of evaluated statuses survives restarts.
package journal

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/internal/panel"
)

// Entry is one metric of one recorded snapshot.
type Entry struct {
	ID        string    `json:"id"`
	TakenAt   time.Time `json:"taken_at"`
	Panel     string    `json:"panel"`
	Metric    string    `json:"metric"`
	Value     *float64  `json:"value"`
	Status    string    `json:"status"`
	SampledAt string    `json:"sampled_at,omitempty"`
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Journal struct {
	log *slog.Logger
	db  *sql.DB
}

// Open creates the database at path if needed.
func Open(log *slog.Logger, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	j := &Journal{log: log, db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS readings (
			id TEXT PRIMARY KEY,
			taken_at TEXT NOT NULL,
			panel TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL,
			status TEXT NOT NULL,
			sampled_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_readings_taken_at ON readings(taken_at);
	`
	_, err := j.db.Exec(query)
	return err
}

// Record stores one row per displayed metric of r, in a single transaction.
func (j *Journal) Record(ctx context.Context, panelName string, r panel.Readings, at time.Time) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (id, taken_at, panel, metric, value, status, sampled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	takenAt := at.UTC().Format(timeLayout)
	for _, m := range r.Metrics {
		var value sql.NullFloat64
		if v := r.Value(m); v != nil {
			value = sql.NullFloat64{Float64: *v, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			takenAt,
			panelName,
			string(m),
			value,
			r.Statuses[m].String(),
			r.Sample.DateTime,
		); err != nil {
			return fmt.Errorf("failed to insert %s: %w", m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	j.log.Debug("readings journaled", slog.String("panel", panelName), slog.Int("metrics", len(r.Metrics)))
	return nil
}

// Recent returns up to limit entries, newest snapshot first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, taken_at, panel, metric, value, status, COALESCE(sampled_at, '')
		FROM readings
		ORDER BY taken_at DESC, metric ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			takenAt string
			value   sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &takenAt, &e.Panel, &e.Metric, &value, &e.Status, &e.SampledAt); err != nil {
			j.log.Error("failed to scan journal row", logging.Err(err))
			continue
		}
		e.TakenAt, err = time.Parse(timeLayout, takenAt)
		if err != nil {
			j.log.Error("failed to parse journal timestamp", logging.Err(err))
			continue
		}
		if value.Valid {
			v := value.Float64
			e.Value = &v
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored rows.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n)
	return n, err
}

// Cleanup deletes rows older than maxAge.
func (j *Journal) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UTC().Format(timeLayout)
	res, err := j.db.ExecContext(ctx, `DELETE FROM readings WHERE taken_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup journal: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.log.Info("journal cleaned up", slog.Int64("deleted", n))
	}
	return n, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// WriteCSV writes entries with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"taken_at", "panel", "metric", "value", "status", "sampled_at"}); err != nil {
		return err
	}
	for _, e := range entries {
		value := ""
		if e.Value != nil {
			value = strconv.FormatFloat(*e.Value, 'f', -1, 64)
		}
		if err := cw.Write([]string{
			e.TakenAt.Format(time.RFC3339),
			e.Panel,
			e.Metric,
			value,
			e.Status,
			e.SampledAt,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
