package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queuedesk/appointment-service/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	PostgresDSN string
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:  getenv("SIM_API_URL", "http://127.0.0.1:8080"),
		Duration:    30 * time.Second,
		Workers:     8,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DataPool holds the ids the workers pick from.
type DataPool struct {
	Services []uuid.UUID
	Staff    []uuid.UUID

	mu     sync.RWMutex
	queued []uuid.UUID
}

func (dp *DataPool) AddQueued(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.queued = append(dp.queued, id)
}

func (dp *DataPool) RandomQueued() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.queued) == 0 {
		return uuid.Nil, false
	}
	return dp.queued[rand.Intn(len(dp.queued))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Report(name string) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		log.Printf("%-12s no operations", name)
		return
	}

	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[min(len(sorted)*95/100, len(sorted)-1)]

	log.Printf("%-12s total=%d success=%d conflict=%d error=%d p50=%s p95=%s",
		name, om.Total, om.Success, om.Conflict, om.Error, p50, p95)
}

func main() {
	log.SetFlags(log.LstdFlags)
	log.Println("simulate starting")

	cfg := loadSimConfig()
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required for candidate loading and invariant checks")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	dp, err := loadPool(context.Background(), pool)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded %d services, %d staff", len(dp.Services), len(dp.Staff))

	gofakeit.Seed(time.Now().UnixNano())

	var (
		createM OperationMetrics
		assignM OperationMetrics
		autoM   OperationMetrics
	)

	runCtx, stop := context.WithTimeout(context.Background(), cfg.Duration)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for runCtx.Err() == nil {
				switch rand.Intn(10) {
				case 0, 1, 2, 3:
					doCreate(client, cfg.APIBaseURL, dp, &createM)
				case 4, 5, 6:
					doAutoAssign(client, cfg.APIBaseURL, dp, &autoM)
				default:
					doManualAssign(client, cfg.APIBaseURL, dp, &assignM)
				}
			}
		}()
	}
	wg.Wait()

	log.Println("simulation finished")
	createM.Report("create")
	assignM.Report("assign")
	autoM.Report("auto-assign")

	if err := verifyInvariants(context.Background(), pool); err != nil {
		log.Fatalf("INVARIANT VIOLATION: %v", err)
	}
	log.Println("invariants hold: capacity respected, no double booking")
}

func loadPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM services WHERE is_active`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Services = append(dp.Services, id)
	}

	staffRows, err := pool.Query(ctx, `SELECT id FROM staff WHERE availability = 'available'`)
	if err != nil {
		return nil, err
	}
	defer staffRows.Close()
	for staffRows.Next() {
		var id uuid.UUID
		if err := staffRows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Staff = append(dp.Staff, id)
	}

	if len(dp.Services) == 0 || len(dp.Staff) == 0 {
		return nil, fmt.Errorf("no seed data, run cmd/seed first")
	}
	return dp, nil
}

func doCreate(client *http.Client, baseURL string, dp *DataPool, m *OperationMetrics) {
	serviceID := dp.Services[rand.Intn(len(dp.Services))]

	// Tight time window so conflicts actually happen.
	start := time.Now().UTC().Truncate(time.Hour).
		Add(time.Duration(rand.Intn(8)) * time.Hour)

	body, _ := json.Marshal(map[string]any{
		"customer_name": gofakeit.Name(),
		"service_id":    serviceID.String(),
		"start_time":    start.Format(time.RFC3339),
	})

	t0 := time.Now()
	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	if err != nil {
		m.Record(time.Since(t0), 0)
		return
	}
	defer resp.Body.Close()
	m.Record(time.Since(t0), resp.StatusCode)

	if resp.StatusCode == http.StatusCreated {
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
			dp.AddQueued(created.ID)
		}
	}
}

func doManualAssign(client *http.Client, baseURL string, dp *DataPool, m *OperationMetrics) {
	apptID, ok := dp.RandomQueued()
	if !ok {
		return
	}
	staffID := dp.Staff[rand.Intn(len(dp.Staff))]

	url := fmt.Sprintf("%s/appointments/%s/assign-staff/%s", baseURL, apptID, staffID)

	t0 := time.Now()
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		m.Record(time.Since(t0), 0)
		return
	}
	resp.Body.Close()
	m.Record(time.Since(t0), resp.StatusCode)
}

func doAutoAssign(client *http.Client, baseURL string, dp *DataPool, m *OperationMetrics) {
	apptID, ok := dp.RandomQueued()
	if !ok {
		return
	}

	url := fmt.Sprintf("%s/appointments/%s/auto-assign", baseURL, apptID)

	t0 := time.Now()
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		m.Record(time.Since(t0), 0)
		return
	}
	resp.Body.Close()
	m.Record(time.Since(t0), resp.StatusCode)
}

// verifyInvariants checks the two core guarantees straight against the
// database: per-day load never exceeds capacity, and no staff member
// holds two non-cancelled appointments at the same timestamp.
func verifyInvariants(ctx context.Context, pool *pgxpool.Pool) error {
	var overCapacity int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT a.staff_id, date(a.start_time AT TIME ZONE 'UTC') AS day, count(*) AS load, s.daily_capacity
			FROM appointments a
			JOIN staff s ON s.id = a.staff_id
			WHERE a.staff_id IS NOT NULL AND a.status <> 'cancelled'
			GROUP BY a.staff_id, day, s.daily_capacity
			HAVING count(*) > s.daily_capacity
		) over_cap
	`).Scan(&overCapacity)
	if err != nil {
		return err
	}
	if overCapacity > 0 {
		return fmt.Errorf("%d staff-days over capacity", overCapacity)
	}

	var doubleBooked int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT staff_id, start_time
			FROM appointments
			WHERE staff_id IS NOT NULL AND status <> 'cancelled'
			GROUP BY staff_id, start_time
			HAVING count(*) > 1
		) dups
	`).Scan(&doubleBooked)
	if err != nil {
		return err
	}
	if doubleBooked > 0 {
		return fmt.Errorf("%d double-booked staff timestamps", doubleBooked)
	}

	return nil
}
