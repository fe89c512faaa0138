package catalog

import (
	"context"
	"errors"

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

// Helpers

func scanStaffType(row pgx.Row) (*StaffType, error) {
	var st StaffType

	err := row.Scan(
		&st.ID,
		&st.Name,
		&st.IsActive,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffTypeNotFound
		}
		return nil, err
	}

	return &st, nil
}

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	var email, phone *string

	err := row.Scan(
		&s.ID,
		&s.Name,
		&email,
		&phone,
		&s.StaffTypeID,
		&s.DailyCapacity,
		&s.Availability,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}

	s.Email = email
	s.Phone = phone
	return &s, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var svc Service

	err := row.Scan(
		&svc.ID,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.PriceCents,
		&svc.RequiredStaffTypeID,
		&svc.IsActive,
		&svc.CreatedAt,
		&svc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &svc, nil
}

// Staff types

func (r *PgRepository) CreateStaffType(ctx context.Context, st *StaffType) (*StaffType, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff_types (id, name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, name, is_active, created_at, updated_at
	`, st.ID, st.Name, st.IsActive)
	return scanStaffType(row)
}

func (r *PgRepository) GetStaffTypeByID(ctx context.Context, id uuid.UUID) (*StaffType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM staff_types
		WHERE id = $1
	`, id)
	return scanStaffType(row)
}

func (r *PgRepository) ListStaffTypes(ctx context.Context) ([]StaffType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM staff_types
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StaffType
	for rows.Next() {
		st, err := scanStaffType(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateStaffType(ctx context.Context, st *StaffType) (*StaffType, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE staff_types
		SET name = $2,
		    is_active = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, is_active, created_at, updated_at
	`, st.ID, st.Name, st.IsActive)
	return scanStaffType(row)
}

func (r *PgRepository) DeleteStaffType(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffTypeNotFound
	}
	return nil
}

// Staff

func (r *PgRepository) CreateStaff(ctx context.Context, s *Staff) (*Staff, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO staff (id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at
	`, s.ID, s.Name, s.Email, s.Phone, s.StaffTypeID, s.DailyCapacity, s.Availability)
	return scanStaff(row)
}

func (r *PgRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at
		FROM staff
		WHERE id = $1
	`, id)
	return scanStaff(row)
}

func (r *PgRepository) ListStaff(ctx context.Context) ([]Staff, error) {
	return r.queryStaff(ctx, `
		SELECT id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at
		FROM staff
		ORDER BY id
	`)
}

func (r *PgRepository) ListStaffByType(ctx context.Context, staffTypeID uuid.UUID) ([]Staff, error) {
	return r.queryStaff(ctx, `
		SELECT id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at
		FROM staff
		WHERE staff_type_id = $1
		ORDER BY id
	`, staffTypeID)
}

func (r *PgRepository) queryStaff(ctx context.Context, sql string, args ...any) ([]Staff, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateStaff(ctx context.Context, s *Staff) (*Staff, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE staff
		SET name = $2,
		    email = $3,
		    phone = $4,
		    staff_type_id = $5,
		    daily_capacity = $6,
		    availability = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at
	`, s.ID, s.Name, s.Email, s.Phone, s.StaffTypeID, s.DailyCapacity, s.Availability)
	return scanStaff(row)
}

func (r *PgRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

// Services

func (r *PgRepository) CreateService(ctx context.Context, svc *Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at
	`, svc.ID, svc.Name, svc.DurationMinutes, svc.PriceCents, svc.RequiredStaffTypeID, svc.IsActive)
	return scanService(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *svc)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateService(ctx context.Context, svc *Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    duration_minutes = $3,
		    price_cents = $4,
		    required_staff_type_id = $5,
		    is_active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at
	`, svc.ID, svc.Name, svc.DurationMinutes, svc.PriceCents, svc.RequiredStaffTypeID, svc.IsActive)
	return scanService(row)
}

func (r *PgRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// Counts for delete guards

func (r *PgRepository) CountStaffOfType(ctx context.Context, staffTypeID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM staff WHERE staff_type_id = $1
	`, staffTypeID).Scan(&n)
	return n, err
}

func (r *PgRepository) CountServicesRequiringType(ctx context.Context, staffTypeID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM services WHERE required_staff_type_id = $1
	`, staffTypeID).Scan(&n)
	return n, err
}
