package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/live-events/internal/event"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driver = "sqlite"

// Storage handles persistence of events and recipient tokens
type Storage struct {
	db  *sql.DB
	loc *time.Location
}

// Query filters events. Zero-valued fields do not filter.
type Query struct {
	From     time.Time // inclusive
	To       time.Time // exclusive
	Name     string
	Location string
	Day      string // YYYY-MM-DD in the store's timezone
}

// New opens (creating if needed) the SQLite database at path and applies
// migrations. Dates read back are placed in loc.
func New(path string, loc *time.Location) (*Storage, error) {
	if loc == nil {
		loc = time.UTC
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open(driver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single connection serializes writers and keeps the batch transaction simple
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{db: db, loc: loc}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	values := url.Values{}
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	return fmt.Sprintf("file:%s?%s", path, values.Encode())
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Location returns the timezone dates are read back in
func (s *Storage) Location() *time.Location {
	return s.loc
}

// InsertBatch writes all events in a single transaction. Either every event
// is stored or none is. IDs are assigned to the events only after commit.
func (s *Storage) InsertBatch(ctx context.Context, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]string, len(events))
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO events (id, name, date, day, location, created_on, external_id, raw_date, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, evt := range events {
			id := evt.ID
			if id == "" {
				id = uuid.NewString()
			}
			createdOn := evt.CreatedOn
			if createdOn.IsZero() {
				createdOn = time.Now()
			}

			date := evt.Date.In(s.loc)
			if _, err := stmt.ExecContext(ctx,
				id,
				evt.Name,
				date.UnixMilli(),
				date.Format("2006-01-02"),
				evt.Location,
				createdOn.UnixMilli(),
				evt.ExternalID,
				evt.RawDate,
				evt.Source,
			); err != nil {
				return fmt.Errorf("inserting event %q: %w", evt.Name, err)
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, evt := range events {
		evt.ID = ids[i]
	}
	return nil
}

// Find returns the events matching q ordered by date.
func (s *Storage) Find(ctx context.Context, q Query) ([]*event.Event, error) {
	var (
		where []string
		args  []interface{}
	)
	if !q.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, q.To.UnixMilli())
	}
	if q.Name != "" {
		where = append(where, "name = ?")
		args = append(args, q.Name)
	}
	if q.Location != "" {
		where = append(where, "location = ?")
		args = append(args, q.Location)
	}
	if q.Day != "" {
		where = append(where, "day = ?")
		args = append(args, q.Day)
	}

	query := "SELECT id, name, date, location, created_on, external_id, raw_date, source FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, created_on, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := make([]*event.Event, 0)
	for rows.Next() {
		var (
			evt       event.Event
			date      int64
			createdOn int64
		)
		if err := rows.Scan(&evt.ID, &evt.Name, &date, &evt.Location, &createdOn, &evt.ExternalID, &evt.RawDate, &evt.Source); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		evt.Date = time.UnixMilli(date).In(s.loc)
		evt.CreatedOn = time.UnixMilli(createdOn).UTC()
		events = append(events, &evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	return events, nil
}

// RecipientTokens returns all registered recipient tokens in registration order
func (s *Storage) RecipientTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT token FROM recipients ORDER BY created_on, token")
	if err != nil {
		return nil, fmt.Errorf("querying recipients: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scanning recipient: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// AddRecipient registers a token. Registering the same token twice is a no-op.
func (s *Storage) AddRecipient(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("recipient token is required")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO recipients (token, created_on) VALUES (?, ?)",
		token, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("adding recipient: %w", err)
	}
	return nil
}

// withTransaction runs fn in a transaction, committing on success and
// rolling back on error.
func (s *Storage) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
