package appointments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments in Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a Postgres-backed appointment store.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("appointments: db required")
	}
	return &Repository{db: db}
}

// Insert writes one appointment row.
func (r *Repository) Insert(ctx context.Context, apt Appointment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (id, name, phone, email, appointment_date, appointment_time, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		apt.ID, apt.Name, apt.Phone, apt.Email, apt.Date, apt.TimeOfDay, apt.Reason, apt.Status, apt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// ListRecent returns the newest appointments, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, phone, email, appointment_date, appointment_time, reason, status, created_at
		FROM appointments
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list recent: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var apt Appointment
		if err := rows.Scan(&apt.ID, &apt.Name, &apt.Phone, &apt.Email, &apt.Date, &apt.TimeOfDay, &apt.Reason, &apt.Status, &apt.CreatedAt); err != nil {
			return nil, fmt.Errorf("appointments: scan row: %w", err)
		}
		out = append(out, apt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate rows: %w", err)
	}
	return out, nil
}
