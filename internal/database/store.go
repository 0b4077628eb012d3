package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for event log operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveEvent inserts one analytics event.
	SaveEvent(ctx context.Context, event *Event) error

	// CountEventsSince returns per-name event counts for events created at or after since.
	CountEventsSince(ctx context.Context, since time.Time) (map[string]int, error)

	// DeleteEventsBefore removes events created before cutoff and returns how many were removed.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveEvent inserts one analytics event inside a transaction.
func (s *sqlxStore) SaveEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("cannot save nil event")
	}
	if event.ID == "" {
		return fmt.Errorf("event must have a non-empty id")
	}
	if event.Name == "" {
		return fmt.Errorf("event must have a non-empty name")
	}
	if event.Properties == "" {
		event.Properties = "{}"
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving event",
			"event", event.Name, "user_id", event.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	query := `
        INSERT INTO analytics_events (id, user_id, name, properties, created_at)
        VALUES (:id, :user_id, :name, :properties, :created_at);
    `
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		s.logger.ErrorContext(ctx, "Error saving event", "event", event.Name, "user_id", event.UserID, "error", err)
		return fmt.Errorf("failed to save event %s (user %d): %w", event.Name, event.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit event transaction", "event", event.Name, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Event saved", "id", event.ID, "event", event.Name, "user_id", event.UserID)
	return nil
}

// CountEventsSince groups events created at or after since by name.
func (s *sqlxStore) CountEventsSince(ctx context.Context, since time.Time) (map[string]int, error) {
	var rows []EventCount
	query := `
        SELECT name, COUNT(*) AS count
        FROM analytics_events
        WHERE created_at >= ?
        GROUP BY name;
    `
	if err := s.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error counting events", "since", since, "error", err)
		return nil, fmt.Errorf("failed to count events since %s: %w", since.Format(time.RFC3339), err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Name] = r.Count
	}
	return counts, nil
}

// DeleteEventsBefore removes events older than cutoff.
func (s *sqlxStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analytics_events WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old events", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete events before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	s.logger.DebugContext(ctx, "Old events deleted", "cutoff", cutoff, "removed", removed)
	return removed, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// busy_timeout is per connection; the pool holds a single one.
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
