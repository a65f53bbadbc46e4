package alarm

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/ashley/internal/storage"
)

// Alarm is one scheduled alarm.
type Alarm struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	FireAt    time.Time `json:"fire_at"`
	Fired     bool      `json:"fired"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists alarms in the shared assistant database (the alarms table
// is created by the sqlite schema).
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create schedules an alarm.
func (s *Store) Create(ctx context.Context, label string, fireAt time.Time) (*Alarm, error) {
	if label == "" {
		label = "Alarm"
	}
	a := &Alarm{
		ID:        uuid.New().String(),
		Label:     label,
		FireAt:    fireAt,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alarms (id, label, fire_at, fired, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, a.ID, a.Label, a.FireAt, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("alarm: failed to create: %w", err)
	}
	return a, nil
}

// Upcoming returns unfired alarms ordered by fire time.
func (s *Store) Upcoming(ctx context.Context) ([]Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, fire_at, fired, created_at
		FROM alarms
		WHERE fired = 0
		ORDER BY fire_at
	`)
	if err != nil {
		return nil, fmt.Errorf("alarm: failed to list: %w", err)
	}
	defer rows.Close()

	var alarms []Alarm
	for rows.Next() {
		var a Alarm
		var fired int
		if err := rows.Scan(&a.ID, &a.Label, &a.FireAt, &fired, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("alarm: failed to scan: %w", err)
		}
		a.Fired = fired != 0
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// Cancel removes an upcoming alarm identified either by its 1-based position
// in the upcoming list or by a label substring. Returns the cancelled alarm.
func (s *Store) Cancel(ctx context.Context, identifier string) (*Alarm, error) {
	identifier = strings.TrimSpace(identifier)
	upcoming, err := s.Upcoming(ctx)
	if err != nil {
		return nil, err
	}
	if len(upcoming) == 0 {
		return nil, storage.ErrNotFound
	}

	var target *Alarm
	if n, err := strconv.Atoi(identifier); err == nil {
		if n < 1 || n > len(upcoming) {
			return nil, storage.ErrNotFound
		}
		target = &upcoming[n-1]
	} else {
		needle := strings.ToLower(identifier)
		for i := range upcoming {
			if needle == "" || strings.Contains(strings.ToLower(upcoming[i].Label), needle) {
				target = &upcoming[i]
				break
			}
		}
	}
	if target == nil {
		return nil, storage.ErrNotFound
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, target.ID); err != nil {
		return nil, fmt.Errorf("alarm: failed to cancel: %w", err)
	}
	return target, nil
}

// Due returns unfired alarms whose fire time has passed.
func (s *Store) Due(ctx context.Context, now time.Time) ([]Alarm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, fire_at, fired, created_at
		FROM alarms
		WHERE fired = 0 AND fire_at <= ?
		ORDER BY fire_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("alarm: failed to query due alarms: %w", err)
	}
	defer rows.Close()

	var alarms []Alarm
	for rows.Next() {
		var a Alarm
		var fired int
		if err := rows.Scan(&a.ID, &a.Label, &a.FireAt, &fired, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("alarm: failed to scan: %w", err)
		}
		alarms = append(alarms, a)
	}
	return alarms, rows.Err()
}

// MarkFired flags an alarm as fired so the watcher never fires it twice.
func (s *Store) MarkFired(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alarms SET fired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("alarm: failed to mark fired: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
