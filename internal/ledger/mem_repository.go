package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepository keeps the ledger in process memory, mirroring the
// Postgres repository's semantics. It backs the persistence-free
// deployment mode and the test suites.
type MemRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]Appointment
	activity     []ActivityEntry
	nextActivity int64
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		appointments: make(map[uuid.UUID]Appointment),
		nextActivity: 1,
	}
}

func (r *MemRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *a
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.appointments[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.where(func(Appointment) bool { return true })
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	cur.CustomerName = a.CustomerName
	cur.CustomerEmail = a.CustomerEmail
	cur.CustomerPhone = a.CustomerPhone
	cur.ServiceID = a.ServiceID
	cur.StartTime = a.StartTime
	cur.UpdatedAt = time.Now()
	r.appointments[cur.ID] = cur
	return &cur, nil
}

func (r *MemRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *MemRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.QueuePosition = nil
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *MemRepository) AssignStaff(ctx context.Context, id, staffID uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.StaffID != nil || a.Status != StatusScheduled {
		return nil, ErrAppointmentNotQueued
	}

	sid := staffID
	a.StaffID = &sid
	a.QueuePosition = nil
	a.UpdatedAt = time.Now()
	r.appointments[id] = a
	return &a, nil
}

func (r *MemRepository) ListQueue(ctx context.Context) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.queueLocked(), nil
}

func (r *MemRepository) QueueLength(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queueLocked()), nil
}

func (r *MemRepository) RerankQueue(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.queueLocked() {
		pos := i + 1
		cur := r.appointments[a.ID]
		if cur.QueuePosition == nil || *cur.QueuePosition != pos {
			cur.QueuePosition = &pos
			r.appointments[cur.ID] = cur
		}
	}
	return nil
}

// queueLocked must be called with the lock held. Ordering matches the
// Postgres queue view: position first, then start time, then creation.
func (r *MemRepository) queueLocked() []Appointment {
	result := r.where(func(a Appointment) bool {
		return a.StaffID == nil && a.Status == StatusScheduled
	})
	sort.Slice(result, func(i, j int) bool {
		pi, pj := result[i].QueuePosition, result[j].QueuePosition
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi < *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// where must be called with the lock held.
func (r *MemRepository) where(keep func(Appointment) bool) []Appointment {
	result := make([]Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		if keep(a) {
			result = append(result, a)
		}
	}
	return result
}

func (r *MemRepository) CountStaffActiveOnDay(ctx context.Context, staffID uuid.UUID, day string, exclude uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.appointments {
		if a.ID == exclude {
			continue
		}
		if a.StaffID != nil && *a.StaffID == staffID && a.Status != StatusCancelled && DayOf(a.StartTime) == day {
			n++
		}
	}
	return n, nil
}

func (r *MemRepository) StaffBookedAt(ctx context.Context, staffID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.ID == exclude {
			continue
		}
		if a.StaffID != nil && *a.StaffID == staffID && a.Status != StatusCancelled && a.StartTime.Equal(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemRepository) StaffHasActiveAppointments(ctx context.Context, staffID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.StaffID != nil && *a.StaffID == staffID && a.Status == StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemRepository) ServiceHasActiveAppointments(ctx context.Context, serviceID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.ServiceID == serviceID && a.Status == StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemRepository) CountOnDay(ctx context.Context, day string) (DayCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var c DayCounts
	for _, a := range r.appointments {
		if DayOf(a.StartTime) != day {
			continue
		}
		c.Total++
		switch a.Status {
		case StatusScheduled:
			c.Scheduled++
		case StatusCompleted:
			c.Completed++
		}
	}
	return c, nil
}

// Activity log

func (r *MemRepository) InsertActivity(ctx context.Context, e ActivityEntry, cap int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextActivity
	r.nextActivity++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	// Newest first, trimmed to the cap, like the persisted variant.
	r.activity = append([]ActivityEntry{e}, r.activity...)
	if len(r.activity) > cap {
		r.activity = r.activity[:cap]
	}
	return nil
}

func (r *MemRepository) ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit > len(r.activity) {
		limit = len(r.activity)
	}
	result := make([]ActivityEntry, limit)
	copy(result, r.activity[:limit])
	return result, nil
}
