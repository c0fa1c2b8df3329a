// Package audit persists fusion_state transitions to a sqlite-backed
// operational log. It never gates the transition that produced an event:
// a write failure is logged and swallowed rather than propagated.
package audit

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/visionfusion/internal/monitoring"
	"github.com/banshee-data/visionfusion/internal/state"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Event is one persisted fusion_state transition.
type Event struct {
	CameraID       string
	FromState      string
	ToState        string
	RequestID      string
	FramesCaptured int
	OccurredAt     time.Time
}

// Logger owns the audit database connection.
type Logger struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite audit database at path and
// migrates it to the latest schema.
func Open(path string) (*Logger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit: %q: %w", pragma, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Logger{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("audit: iofs source: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("audit: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("audit: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("audit: migrate up: %w", err)
	}
	return nil
}

// DB exposes the underlying connection, e.g. for mounting a tailsql browser.
func (l *Logger) DB() *sql.DB { return l.db }

// Close closes the audit database.
func (l *Logger) Close() error { return l.db.Close() }

// Record appends one transition event.
func (l *Logger) Record(e Event) error {
	_, err := l.db.Exec(
		`INSERT INTO audit_events (camera_id, from_state, to_state, request_id, frames_captured, occurred_at_unix_nanos)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.CameraID, e.FromState, e.ToState, e.RequestID, e.FramesCaptured, e.OccurredAt.UnixNano(),
	)
	return err
}

// Recent returns the most recent events for a camera, newest first.
func (l *Logger) Recent(cameraID string, limit int) ([]Event, error) {
	rows, err := l.db.Query(
		`SELECT camera_id, from_state, to_state, request_id, frames_captured, occurred_at_unix_nanos
		 FROM audit_events WHERE camera_id = ? ORDER BY id DESC LIMIT ?`,
		cameraID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var nanos int64
		if err := rows.Scan(&e.CameraID, &e.FromState, &e.ToState, &e.RequestID, &e.FramesCaptured, &nanos); err != nil {
			return nil, err
		}
		e.OccurredAt = time.Unix(0, nanos)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Listener adapts a Logger into a state.TransitionListener. hasFused
// reports whether a camera currently has a published fused_result, used as
// a coarse (0 or 1) proxy for frames_captured since the listener interface
// carries no richer per-bracket detail.
func (l *Logger) Listener(hasFused func(cameraID string) bool) func(cameraID, from, to, requestID string) {
	return func(cameraID, from, to, requestID string) {
		frames := 0
		if to == state.StateReady && hasFused(cameraID) {
			frames = 1
		}
		err := l.Record(Event{
			CameraID:       cameraID,
			FromState:      from,
			ToState:        to,
			RequestID:      requestID,
			FramesCaptured: frames,
			OccurredAt:     time.Now(),
		})
		if err != nil {
			monitoring.Logf("audit: AuditWriteFailed camera=%s %s->%s: %v", cameraID, from, to, err)
		}
	}
}
