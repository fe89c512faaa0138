package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, customer_name, customer_email, customer_phone, service_id, staff_id, start_time, status, queue_position, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var email, phone *string
	var staffID *uuid.UUID
	var pos *int

	err := row.Scan(
		&a.ID,
		&a.CustomerName,
		&email,
		&phone,
		&a.ServiceID,
		&staffID,
		&a.StartTime,
		&a.Status,
		&pos,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.CustomerEmail = email
	a.CustomerPhone = phone
	a.StaffID = staffID
	a.QueuePosition = pos
	return &a, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, customer_name, customer_email, customer_phone, service_id, staff_id, start_time, status, queue_position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.CustomerName, a.CustomerEmail, a.CustomerPhone, a.ServiceID, a.StaffID, a.StartTime, a.Status, a.QueuePosition)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time, created_at
	`)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET customer_name = $2,
		    customer_email = $3,
		    customer_phone = $4,
		    service_id = $5,
		    start_time = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.CustomerName, a.CustomerEmail, a.CustomerPhone, a.ServiceID, a.StartTime)
	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    queue_position = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) AssignStaff(ctx context.Context, id, staffID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET staff_id = $2,
		    queue_position = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND staff_id IS NULL
		  AND status = 'scheduled'
		RETURNING `+appointmentColumns+`
	`, id, staffID)

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish a missing row from one that lost the race.
			if _, getErr := r.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrAppointmentNotQueued
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return a, nil
}

const queueOrder = `ORDER BY queue_position NULLS LAST, start_time, created_at`

func (r *PgRepository) ListQueue(ctx context.Context) ([]Appointment, error) {
	return r.queryAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id IS NULL AND status = 'scheduled'
		`+queueOrder)
}

func (r *PgRepository) QueueLength(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE staff_id IS NULL AND status = 'scheduled'
	`).Scan(&n)
	return n, err
}

func (r *PgRepository) RerankQueue(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		WITH ranked AS (
			SELECT id, row_number() OVER (`+queueOrder+`) AS rn
			FROM appointments
			WHERE staff_id IS NULL AND status = 'scheduled'
		)
		UPDATE appointments a
		SET queue_position = r.rn
		FROM ranked r
		WHERE a.id = r.id
		  AND a.queue_position IS DISTINCT FROM r.rn
	`)
	if err != nil {
		return fmt.Errorf("rerank queue: %w", err)
	}
	return nil
}

func (r *PgRepository) CountStaffActiveOnDay(ctx context.Context, staffID uuid.UUID, day string, exclude uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE staff_id = $1
		  AND status <> 'cancelled'
		  AND date(start_time AT TIME ZONE 'UTC') = $2::date
		  AND id <> $3
	`, staffID, day, exclude).Scan(&n)
	return n, err
}

func (r *PgRepository) StaffBookedAt(ctx context.Context, staffID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	var booked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE staff_id = $1
			  AND start_time = $2
			  AND status <> 'cancelled'
			  AND id <> $3
		)
	`, staffID, at, exclude).Scan(&booked)
	return booked, err
}

func (r *PgRepository) StaffHasActiveAppointments(ctx context.Context, staffID uuid.UUID) (bool, error) {
	var busy bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE staff_id = $1 AND status = 'scheduled'
		)
	`, staffID).Scan(&busy)
	return busy, err
}

func (r *PgRepository) ServiceHasActiveAppointments(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	var busy bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE service_id = $1 AND status = 'scheduled'
		)
	`, serviceID).Scan(&busy)
	return busy, err
}

func (r *PgRepository) CountOnDay(ctx context.Context, day string) (DayCounts, error) {
	var c DayCounts
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'scheduled'),
		       count(*) FILTER (WHERE status = 'completed')
		FROM appointments
		WHERE date(start_time AT TIME ZONE 'UTC') = $1::date
	`, day).Scan(&c.Total, &c.Scheduled, &c.Completed)
	return c, err
}

func (r *PgRepository) queryAppointments(ctx context.Context, sql string, args ...any) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

// Activity log

func (r *PgRepository) InsertActivity(ctx context.Context, e ActivityEntry, cap int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (action, actor, message, appointment_id, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, e.Action, e.Actor, e.Message, e.AppointmentID, nullableTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		DELETE FROM activity_log
		WHERE id NOT IN (
			SELECT id FROM activity_log
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		)
	`, cap)
	if err != nil {
		return fmt.Errorf("trim activity log: %w", err)
	}

	return nil
}

func (r *PgRepository) ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, actor, message, appointment_id, created_at
		FROM activity_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var apptID *uuid.UUID
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.Message, &apptID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.AppointmentID = apptID
		result = append(result, e)
	}

	return result, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
