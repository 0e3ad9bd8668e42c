package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"inferd/internal/common/fsutil"
	"inferd/internal/dispatch"
)

// Journal persists dispatcher events to a local SQLite file. It is an
// optional sink: the daemon wires one when journal_path is set.
type Journal struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the journal database at path.
func Open(path string, log zerolog.Logger) (*Journal, error) {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	j := &Journal{db: db, log: log}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  at DATETIME NOT NULL,
  name TEXT NOT NULL,
  model TEXT NOT NULL DEFAULT '',
  op_id TEXT NOT NULL DEFAULT '',
  fields TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// Publish implements dispatch.EventPublisher. Write failures are logged
// and dropped.
func (j *Journal) Publish(ev dispatch.Event) {
	var fields string
	if len(ev.Fields) > 0 {
		b, err := json.Marshal(ev.Fields)
		if err != nil {
			j.log.Warn().Err(err).Str("event", ev.Name).Msg("journal: encode fields")
		} else {
			fields = string(b)
		}
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := j.db.ExecContext(ctx, `
INSERT INTO events(at, name, model, op_id, fields) VALUES(?, ?, ?, ?, ?);
`, at, ev.Name, ev.Model, ev.OpID, fields)
	if err != nil {
		j.log.Warn().Err(err).Str("event", ev.Name).Msg("journal: write failed")
	}
}

// Entry is one persisted event.
type Entry struct {
	ID     int64          `json:"id"`
	At     time.Time      `json:"at"`
	Name   string         `json:"name"`
	Model  string         `json:"model,omitempty"`
	OpID   string         `json:"op_id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Recent returns up to limit entries, newest first. A non-positive limit
// means 50.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, at, name, model, op_id, fields
FROM events ORDER BY id DESC LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var fields string
		if err := rows.Scan(&e.ID, &e.At, &e.Name, &e.Model, &e.OpID, &fields); err != nil {
			return nil, err
		}
		if fields != "" {
			if err := json.Unmarshal([]byte(fields), &e.Fields); err != nil {
				j.log.Warn().Err(err).Int64("id", e.ID).Msg("journal: decode fields")
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}
