package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleStore persists synced schedule entries in PostgreSQL. Time lists
// are stored JSON-encoded, matching the document shape they arrive in.
type ScheduleStore struct {
	pool *pgxpool.Pool
}

// NewScheduleStore creates a store backed by the given pool
func NewScheduleStore(pool *pgxpool.Pool) *ScheduleStore {
	return &ScheduleStore{pool: pool}
}

// EnsureSchema creates the schedule table if it does not exist
func (s *ScheduleStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schedule_entry (
			id              TEXT PRIMARY KEY,
			route_no        TEXT NOT NULL,
			route_name      TEXT NOT NULL,
			start_times     JSONB NOT NULL DEFAULT '[]',
			departure_times JSONB NOT NULL DEFAULT '[]',
			route_details   TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schedule schema: %w", err)
	}
	return nil
}

// ReplaceAll swaps the full entry set in one transaction (clear-then-insert).
// Each sync replaces the snapshot wholesale; there are no partial updates.
func (s *ScheduleStore) ReplaceAll(ctx context.Context, entries []models.ScheduleEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM schedule_entry`); err != nil {
		return fmt.Errorf("failed to clear schedule entries: %w", err)
	}

	for _, e := range entries {
		startJSON, err := json.Marshal(e.StartTimes)
		if err != nil {
			return fmt.Errorf("failed to marshal start times for %s: %w", e.ID, err)
		}
		depJSON, err := json.Marshal(e.DepartureTimes)
		if err != nil {
			return fmt.Errorf("failed to marshal departure times for %s: %w", e.ID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO schedule_entry (id, route_no, route_name, start_times, departure_times, route_details)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				route_no = EXCLUDED.route_no,
				route_name = EXCLUDED.route_name,
				start_times = EXCLUDED.start_times,
				departure_times = EXCLUDED.departure_times,
				route_details = EXCLUDED.route_details
		`, e.ID, e.RouteNo, e.RouteName, startJSON, depJSON, e.RouteDetails)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit schedule replace: %w", err)
	}

	log.Printf("Replaced schedule entries (%d rows)", len(entries))
	return nil
}

// ListAll returns all entries ordered by route number
func (s *ScheduleStore) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, route_no, route_name, start_times, departure_times, route_details, created_at
		FROM schedule_entry
		ORDER BY route_no ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		var startJSON, depJSON []byte
		if err := rows.Scan(&e.ID, &e.RouteNo, &e.RouteName, &startJSON, &depJSON, &e.RouteDetails, &e.CreatedAt); err != nil {
			log.Printf("Warning: failed to scan schedule entry: %v", err)
			continue
		}
		if err := json.Unmarshal(startJSON, &e.StartTimes); err != nil {
			log.Printf("Warning: bad start_times JSON for %s: %v", e.ID, err)
		}
		if err := json.Unmarshal(depJSON, &e.DepartureTimes); err != nil {
			log.Printf("Warning: bad departure_times JSON for %s: %v", e.ID, err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
