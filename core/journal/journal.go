// Package journal persists every routed event to a local SQLite
// database so a session can be replayed or inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mindvale/worldcore/core/events"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	actor       TEXT NOT NULL,
	location    TEXT NOT NULL,
	message     TEXT NOT NULL,
	origin      TEXT NOT NULL DEFAULT '',
	destination TEXT NOT NULL DEFAULT '',
	via         TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	timestamp   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS events_timestamp ON events (timestamp);
`

// Store is an append-mostly event journal. It satisfies the router's
// recorder contract.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) a journal at path. Use
// ":memory:" for an ephemeral journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// The sqlite driver does not tolerate concurrent writers on one
	// connection pool well; a single connection keeps inserts ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one event. Called inline on the publish path, so it
// keeps its own short deadline instead of inheriting a caller context.
func (s *Store) Record(event events.Event) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("journal is not open")
	}

	metadata := []byte("{}")
	if len(event.Metadata) > 0 {
		encoded, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode event metadata: %w", err)
		}
		metadata = encoded
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, actor, location, message, origin, destination, via, metadata, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Kind), event.Actor, event.Location, event.Message,
		event.Origin, event.Destination, event.Via, string(metadata), event.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]events.Event, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("journal is not open")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, actor, location, message, origin, destination, via, metadata, timestamp
		 FROM events ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			event    events.Event
			kind     string
			metadata string
		)
		if err := rows.Scan(&event.ID, &kind, &event.Actor, &event.Location, &event.Message,
			&event.Origin, &event.Destination, &event.Via, &metadata, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		event.Kind = events.Kind(kind)
		if metadata != "" && metadata != "{}" {
			if err := json.Unmarshal([]byte(metadata), &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode event metadata: %w", err)
			}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
