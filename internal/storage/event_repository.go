package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fitcal/backend/internal/storage/models"
)

const lastSyncKey = "last_sync"

// EventRepository persists the calendar event collection.
//
// The calendar service treats its in-memory collection as the source of truth
// for the session and mirrors it here, so Save replaces the whole table in
// one transaction rather than tracking row-level diffs.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Load reads the full event collection and the last sync marker.
// A missing last_sync setting yields a zero time, not an error.
func (r *EventRepository) Load(ctx context.Context) ([]models.Event, time.Time, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, title, description, type, start_time, end_time,
		       recurring, reminder, metadata, color, completed, created_at, updated_at
		FROM events
		ORDER BY start_time
	`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, time.Time{}, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("reading events: %w", err)
	}

	lastSync, err := r.loadLastSync(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	return events, lastSync, nil
}

// Save replaces the stored collection with the given events and records the
// sync timestamp, all within a single transaction.
func (r *EventRepository) Save(ctx context.Context, events []models.Event, lastSync time.Time) error {
	return r.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
			return fmt.Errorf("clearing events: %w", err)
		}

		for i := range events {
			if err := insertEvent(ctx, tx, &events[i]); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, lastSyncKey, lastSync.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("recording last sync: %w", err)
		}

		return nil
	})
}

// Count returns the number of stored events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev *models.Event) error {
	recurring, err := marshalNullable(ev.Recurring)
	if err != nil {
		return fmt.Errorf("encoding recurrence for %s: %w", ev.ID, err)
	}
	reminder, err := marshalNullable(ev.Reminder)
	if err != nil {
		return fmt.Errorf("encoding reminder for %s: %w", ev.ID, err)
	}
	var metadata sql.NullString
	if len(ev.Metadata) > 0 {
		data, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for %s: %w", ev.ID, err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (
			id, title, description, type, start_time, end_time,
			recurring, reminder, metadata, color, completed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID, ev.Title, ev.Description, string(ev.Type), ev.StartTime.UTC(), ev.EndTime.UTC(),
		recurring, reminder, metadata, ev.Color, ev.Completed, ev.CreatedAt.UTC(), ev.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting event %s: %w", ev.ID, err)
	}
	return nil
}

func scanEvent(rows *sql.Rows) (models.Event, error) {
	var ev models.Event
	var typ string
	var recurring, reminder, metadata sql.NullString

	if err := rows.Scan(
		&ev.ID, &ev.Title, &ev.Description, &typ, &ev.StartTime, &ev.EndTime,
		&recurring, &reminder, &metadata, &ev.Color, &ev.Completed, &ev.CreatedAt, &ev.UpdatedAt,
	); err != nil {
		return ev, fmt.Errorf("scanning event: %w", err)
	}
	ev.Type = models.EventType(typ)

	if recurring.Valid {
		ev.Recurring = &models.RecurrenceRule{}
		if err := json.Unmarshal([]byte(recurring.String), ev.Recurring); err != nil {
			return ev, fmt.Errorf("decoding recurrence for %s: %w", ev.ID, err)
		}
	}
	if reminder.Valid {
		ev.Reminder = &models.Reminder{}
		if err := json.Unmarshal([]byte(reminder.String), ev.Reminder); err != nil {
			return ev, fmt.Errorf("decoding reminder for %s: %w", ev.ID, err)
		}
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &ev.Metadata); err != nil {
			return ev, fmt.Errorf("decoding metadata for %s: %w", ev.ID, err)
		}
	}

	return ev, nil
}

func (r *EventRepository) loadLastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := r.DB().QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", lastSyncKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last sync: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sync %q: %w", value, err)
	}
	return ts, nil
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
