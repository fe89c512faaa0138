package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queuedesk/appointment-service/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	typeIDs, err := seedStaffTypes(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed staff types: %v", err)
	}

	if err := seedStaff(context.Background(), pool, typeIDs, 25); err != nil {
		log.Fatalf("seed staff: %v", err)
	}

	serviceIDs, err := seedServices(context.Background(), pool, typeIDs)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}

	if err := seedAppointments(context.Background(), pool, serviceIDs, 200); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedStaffTypes(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	names := []string{"Doctor", "Consultant", "Support Agent", "Nurse", "Therapist"}

	log.Printf("seeding %d staff types", len(names))

	ids := make(map[string]uuid.UUID, len(names))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO staff_types (id, name, is_active, created_at, updated_at)
			VALUES ($1, $2, true, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids[name] = id
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("staff types seeded")
	return ids, nil
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool, typeIDs map[string]uuid.UUID, count int) error {
	log.Printf("seeding %d staff", count)

	types := make([]uuid.UUID, 0, len(typeIDs))
	for _, id := range typeIDs {
		types = append(types, id)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		email := gofakeit.Email()
		phone := gofakeit.Phone()
		typeID := types[gofakeit.Number(0, len(types)-1)]
		capacity := gofakeit.Number(3, 8)

		availability := "available"
		if gofakeit.Number(0, 9) == 0 {
			availability = "on_leave"
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO staff (id, name, email, phone, staff_type_id, daily_capacity, availability, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		`, id, name, email, phone, typeID, capacity, availability)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("staff seeded")
	return nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool, typeIDs map[string]uuid.UUID) ([]uuid.UUID, error) {
	services := []struct {
		name     string
		duration int
		price    int
		staff    string
	}{
		{"General Consultation", 30, 5000, "Doctor"},
		{"Health Check-up", 60, 12000, "Doctor"},
		{"Follow-up Visit", 15, 3000, "Doctor"},
		{"Business Consultation", 30, 8000, "Consultant"},
		{"Technical Support", 15, 2500, "Support Agent"},
		{"Vaccination", 15, 4000, "Nurse"},
		{"Physio Session", 60, 9000, "Therapist"},
	}

	log.Printf("seeding %d services", len(services))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(services))
	for _, s := range services {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, duration_minutes, price_cents, required_staff_type_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, id, s.name, s.duration, s.price, typeIDs[s.staff])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("services seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, serviceIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d queued appointments", count)

	const batchSize = 100

	pos := 0
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			serviceID := serviceIDs[gofakeit.Number(0, len(serviceIDs)-1)]

			// Spread over the next week on the half hour.
			start := time.Now().UTC().Truncate(time.Hour).
				Add(time.Duration(gofakeit.Number(1, 7*24)) * time.Hour).
				Add(time.Duration(gofakeit.Number(0, 1)*30) * time.Minute)

			pos++
			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, customer_name, customer_email, service_id, staff_id, start_time, status, queue_position, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NULL, $5, 'scheduled', $6, now(), now())
			`, id, name, email, serviceID, start, pos)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
