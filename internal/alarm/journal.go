package alarm

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const journalSchema = `CREATE TABLE IF NOT EXISTS alarms (
	id        TEXT PRIMARY KEY,
	raised_at TEXT NOT NULL,
	message   TEXT NOT NULL
)`

// Journal is an append-only alarm history in SQLite.
// It is safe for concurrent use.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append stores an alarm.
func (j *Journal) Append(ctx context.Context, a Alarm) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO alarms (id, raised_at, message) VALUES (?, ?, ?)`,
		a.ID, a.Timestamp.UTC().Format(time.RFC3339Nano), a.Message)
	if err != nil {
		return fmt.Errorf("insert alarm: %w", err)
	}
	return nil
}

// List returns the most recent limit alarms, oldest first.
// A limit <= 0 returns every alarm.
func (j *Journal) List(ctx context.Context, limit int) ([]Alarm, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, raised_at, message FROM (
			SELECT rowid, id, raised_at, message FROM alarms ORDER BY rowid DESC LIMIT ?
		) ORDER BY rowid ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alarms: %w", err)
	}
	defer rows.Close()

	var out []Alarm
	for rows.Next() {
		var a Alarm
		var ts string
		if err := rows.Scan(&a.ID, &ts, &a.Message); err != nil {
			return nil, fmt.Errorf("scan alarm: %w", err)
		}
		a.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse alarm %s timestamp: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of stored alarms.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alarms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count alarms: %w", err)
	}
	return n, nil
}

// Clear deletes every alarm whose message contains match (case-sensitive)
// and returns how many were removed. An empty match removes nothing.
func (j *Journal) Clear(ctx context.Context, match string) (int64, error) {
	if match == "" {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM alarms WHERE instr(message, ?) > 0`, match)
	if err != nil {
		return 0, fmt.Errorf("clear alarms: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
