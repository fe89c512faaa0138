package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepository keeps the catalog in process memory. It backs the
// persistence-free deployment mode and the test suites.
type MemRepository struct {
	mu         sync.RWMutex
	staffTypes map[uuid.UUID]StaffType
	staff      map[uuid.UUID]Staff
	services   map[uuid.UUID]Service
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		staffTypes: make(map[uuid.UUID]StaffType),
		staff:      make(map[uuid.UUID]Staff),
		services:   make(map[uuid.UUID]Service),
	}
}

// Staff types

func (r *MemRepository) CreateStaffType(ctx context.Context, st *StaffType) (*StaffType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *st
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.staffTypes[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) GetStaffTypeByID(ctx context.Context, id uuid.UUID) (*StaffType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.staffTypes[id]
	if !ok {
		return nil, ErrStaffTypeNotFound
	}
	return &st, nil
}

func (r *MemRepository) ListStaffTypes(ctx context.Context) ([]StaffType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]StaffType, 0, len(r.staffTypes))
	for _, st := range r.staffTypes {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (r *MemRepository) UpdateStaffType(ctx context.Context, st *StaffType) (*StaffType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.staffTypes[st.ID]
	if !ok {
		return nil, ErrStaffTypeNotFound
	}

	cp := *st
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()
	r.staffTypes[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) DeleteStaffType(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staffTypes[id]; !ok {
		return ErrStaffTypeNotFound
	}
	delete(r.staffTypes, id)
	return nil
}

// Staff

func (r *MemRepository) CreateStaff(ctx context.Context, s *Staff) (*Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.staff[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.staff[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return &s, nil
}

func (r *MemRepository) ListStaff(ctx context.Context) ([]Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.staffWhere(func(Staff) bool { return true }), nil
}

func (r *MemRepository) ListStaffByType(ctx context.Context, staffTypeID uuid.UUID) ([]Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.staffWhere(func(s Staff) bool { return s.StaffTypeID == staffTypeID }), nil
}

// staffWhere must be called with the lock held. Results are ordered by id
// so callers see a stable order.
func (r *MemRepository) staffWhere(keep func(Staff) bool) []Staff {
	result := make([]Staff, 0, len(r.staff))
	for _, s := range r.staff {
		if keep(s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

func (r *MemRepository) UpdateStaff(ctx context.Context, s *Staff) (*Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.staff[s.ID]
	if !ok {
		return nil, ErrStaffNotFound
	}

	cp := *s
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()
	r.staff[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.staff[id]; !ok {
		return ErrStaffNotFound
	}
	delete(r.staff, id)
	return nil
}

// Services

func (r *MemRepository) CreateService(ctx context.Context, svc *Service) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *svc
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.services[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &svc, nil
}

func (r *MemRepository) ListServices(ctx context.Context) ([]Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Service, 0, len(r.services))
	for _, svc := range r.services {
		result = append(result, svc)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

func (r *MemRepository) UpdateService(ctx context.Context, svc *Service) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.services[svc.ID]
	if !ok {
		return nil, ErrServiceNotFound
	}

	cp := *svc
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()
	r.services[cp.ID] = cp
	return &cp, nil
}

func (r *MemRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.services[id]; !ok {
		return ErrServiceNotFound
	}
	delete(r.services, id)
	return nil
}

// Counts for delete guards

func (r *MemRepository) CountStaffOfType(ctx context.Context, staffTypeID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.staff {
		if s.StaffTypeID == staffTypeID {
			n++
		}
	}
	return n, nil
}

func (r *MemRepository) CountServicesRequiringType(ctx context.Context, staffTypeID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, svc := range r.services {
		if svc.RequiredStaffTypeID == staffTypeID {
			n++
		}
	}
	return n, nil
}
