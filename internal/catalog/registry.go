package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrStaffTypeNameTaken = errors.New("staff type name already in use")
	ErrStaffTypeInUse     = errors.New("staff type is referenced by staff or services")
	ErrStaffInUse         = errors.New("staff member has active appointments")
	ErrServiceInUse       = errors.New("service has active appointments")
	ErrServiceInactive    = errors.New("service is not active")
)

// LedgerReader is the slice of the appointment ledger the registry needs
// for load queries and delete guards. The exclude argument skips one
// appointment id; uuid.Nil counts everything.
type LedgerReader interface {
	CountStaffActiveOnDay(ctx context.Context, staffID uuid.UUID, day string, exclude uuid.UUID) (int, error)
	StaffHasActiveAppointments(ctx context.Context, staffID uuid.UUID) (bool, error)
	ServiceHasActiveAppointments(ctx context.Context, serviceID uuid.UUID) (bool, error)
}

// Registry answers eligibility and load queries over staff, staff types
// and services, and owns their CRUD.
type Registry struct {
	repo   Repository
	ledger LedgerReader
}

func NewRegistry(repo Repository, ledger LedgerReader) *Registry {
	return &Registry{
		repo:   repo,
		ledger: ledger,
	}
}

// EligibleStaffFor returns every available staff member whose type matches
// the service's required type. An inactive service is not offered, so it
// reads as missing here; booking flows report the inactive state instead.
func (r *Registry) EligibleStaffFor(ctx context.Context, serviceID uuid.UUID) ([]Staff, error) {
	svc, err := r.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceNotFound
	}

	candidates, err := r.repo.ListStaffByType(ctx, svc.RequiredStaffTypeID)
	if err != nil {
		return nil, fmt.Errorf("list staff for type %s: %w", svc.RequiredStaffTypeID, err)
	}

	eligible := make([]Staff, 0, len(candidates))
	for _, s := range candidates {
		if s.Availability == AvailabilityAvailable {
			eligible = append(eligible, s)
		}
	}

	return eligible, nil
}

// StaffLoadOn counts the staff member's non-cancelled appointments on one
// calendar day (UTC). Pure read.
func (r *Registry) StaffLoadOn(ctx context.Context, staffID uuid.UUID, day string) (int, error) {
	if _, err := r.repo.GetStaffByID(ctx, staffID); err != nil {
		return 0, err
	}
	return r.ledger.CountStaffActiveOnDay(ctx, staffID, day, uuid.Nil)
}

// Staff types

func (r *Registry) CreateStaffType(ctx context.Context, name string) (*StaffType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: staff type name is required", ErrInvalidInput)
	}

	if err := r.checkStaffTypeName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	st := &StaffType{
		ID:       uuid.New(),
		Name:     name,
		IsActive: true,
	}
	return r.repo.CreateStaffType(ctx, st)
}

func (r *Registry) GetStaffType(ctx context.Context, id uuid.UUID) (*StaffType, error) {
	return r.repo.GetStaffTypeByID(ctx, id)
}

func (r *Registry) ListStaffTypes(ctx context.Context) ([]StaffType, error) {
	return r.repo.ListStaffTypes(ctx)
}

type StaffTypePatch struct {
	Name     *string
	IsActive *bool
}

func (r *Registry) UpdateStaffType(ctx context.Context, id uuid.UUID, patch StaffTypePatch) (*StaffType, error) {
	st, err := r.repo.GetStaffTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: staff type name is required", ErrInvalidInput)
		}
		if err := r.checkStaffTypeName(ctx, name, id); err != nil {
			return nil, err
		}
		st.Name = name
	}
	if patch.IsActive != nil {
		// Deactivation is soft: existing staff and services keep their
		// reference, the type just stops being offered for new rows.
		st.IsActive = *patch.IsActive
	}

	return r.repo.UpdateStaffType(ctx, st)
}

func (r *Registry) DeleteStaffType(ctx context.Context, id uuid.UUID) error {
	if _, err := r.repo.GetStaffTypeByID(ctx, id); err != nil {
		return err
	}

	nStaff, err := r.repo.CountStaffOfType(ctx, id)
	if err != nil {
		return fmt.Errorf("count staff of type: %w", err)
	}
	nServices, err := r.repo.CountServicesRequiringType(ctx, id)
	if err != nil {
		return fmt.Errorf("count services requiring type: %w", err)
	}
	if nStaff > 0 || nServices > 0 {
		return ErrStaffTypeInUse
	}

	return r.repo.DeleteStaffType(ctx, id)
}

func (r *Registry) checkStaffTypeName(ctx context.Context, name string, exclude uuid.UUID) error {
	types, err := r.repo.ListStaffTypes(ctx)
	if err != nil {
		return fmt.Errorf("list staff types: %w", err)
	}
	for _, t := range types {
		if t.ID != exclude && t.IsActive && strings.EqualFold(t.Name, name) {
			return ErrStaffTypeNameTaken
		}
	}
	return nil
}

// Staff

type StaffInput struct {
	Name          string
	Email         *string
	Phone         *string
	StaffTypeID   uuid.UUID
	DailyCapacity int
	Availability  Availability
}

func (r *Registry) CreateStaff(ctx context.Context, in StaffInput) (*Staff, error) {
	if err := r.validateStaffInput(ctx, in); err != nil {
		return nil, err
	}

	s := &Staff{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		Email:         in.Email,
		Phone:         in.Phone,
		StaffTypeID:   in.StaffTypeID,
		DailyCapacity: in.DailyCapacity,
		Availability:  in.Availability,
	}
	return r.repo.CreateStaff(ctx, s)
}

func (r *Registry) GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return r.repo.GetStaffByID(ctx, id)
}

func (r *Registry) ListStaff(ctx context.Context) ([]Staff, error) {
	return r.repo.ListStaff(ctx)
}

type StaffPatch struct {
	Name          *string
	Email         *string
	Phone         *string
	StaffTypeID   *uuid.UUID
	DailyCapacity *int
	Availability  *Availability
}

func (r *Registry) UpdateStaff(ctx context.Context, id uuid.UUID, patch StaffPatch) (*Staff, error) {
	s, err := r.repo.GetStaffByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: staff name is required", ErrInvalidInput)
		}
		s.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		s.Email = patch.Email
	}
	if patch.Phone != nil {
		s.Phone = patch.Phone
	}
	if patch.StaffTypeID != nil {
		if _, err := r.repo.GetStaffTypeByID(ctx, *patch.StaffTypeID); err != nil {
			return nil, err
		}
		s.StaffTypeID = *patch.StaffTypeID
	}
	if patch.DailyCapacity != nil {
		if *patch.DailyCapacity < 1 {
			return nil, fmt.Errorf("%w: daily capacity must be at least 1", ErrInvalidInput)
		}
		s.DailyCapacity = *patch.DailyCapacity
	}
	if patch.Availability != nil {
		if !validAvailability(*patch.Availability) {
			return nil, fmt.Errorf("%w: unknown availability %q", ErrInvalidInput, *patch.Availability)
		}
		s.Availability = *patch.Availability
	}

	return r.repo.UpdateStaff(ctx, s)
}

func (r *Registry) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	if _, err := r.repo.GetStaffByID(ctx, id); err != nil {
		return err
	}

	busy, err := r.ledger.StaffHasActiveAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("check staff appointments: %w", err)
	}
	if busy {
		return ErrStaffInUse
	}

	return r.repo.DeleteStaff(ctx, id)
}

func (r *Registry) validateStaffInput(ctx context.Context, in StaffInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: staff name is required", ErrInvalidInput)
	}
	if in.DailyCapacity < 1 {
		return fmt.Errorf("%w: daily capacity must be at least 1", ErrInvalidInput)
	}
	if !validAvailability(in.Availability) {
		return fmt.Errorf("%w: unknown availability %q", ErrInvalidInput, in.Availability)
	}
	if _, err := r.repo.GetStaffTypeByID(ctx, in.StaffTypeID); err != nil {
		return err
	}
	return nil
}

func validAvailability(a Availability) bool {
	return a == AvailabilityAvailable || a == AvailabilityOnLeave
}

// Services

type ServiceInput struct {
	Name                string
	DurationMinutes     int
	PriceCents          int
	RequiredStaffTypeID uuid.UUID
}

func (r *Registry) CreateService(ctx context.Context, in ServiceInput) (*Service, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrInvalidInput)
	}
	if in.DurationMinutes < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 minute", ErrInvalidInput)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if _, err := r.repo.GetStaffTypeByID(ctx, in.RequiredStaffTypeID); err != nil {
		return nil, err
	}

	svc := &Service{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(in.Name),
		DurationMinutes:     in.DurationMinutes,
		PriceCents:          in.PriceCents,
		RequiredStaffTypeID: in.RequiredStaffTypeID,
		IsActive:            true,
	}
	return r.repo.CreateService(ctx, svc)
}

func (r *Registry) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return r.repo.GetServiceByID(ctx, id)
}

func (r *Registry) ListServices(ctx context.Context) ([]Service, error) {
	return r.repo.ListServices(ctx)
}

type ServicePatch struct {
	Name                *string
	DurationMinutes     *int
	PriceCents          *int
	RequiredStaffTypeID *uuid.UUID
	IsActive            *bool
}

func (r *Registry) UpdateService(ctx context.Context, id uuid.UUID, patch ServicePatch) (*Service, error) {
	svc, err := r.repo.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: service name is required", ErrInvalidInput)
		}
		svc.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes < 1 {
			return nil, fmt.Errorf("%w: duration must be at least 1 minute", ErrInvalidInput)
		}
		svc.DurationMinutes = *patch.DurationMinutes
	}
	if patch.PriceCents != nil {
		if *patch.PriceCents < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
		}
		svc.PriceCents = *patch.PriceCents
	}
	if patch.RequiredStaffTypeID != nil {
		if _, err := r.repo.GetStaffTypeByID(ctx, *patch.RequiredStaffTypeID); err != nil {
			return nil, err
		}
		svc.RequiredStaffTypeID = *patch.RequiredStaffTypeID
	}
	if patch.IsActive != nil {
		svc.IsActive = *patch.IsActive
	}

	return r.repo.UpdateService(ctx, svc)
}

func (r *Registry) DeleteService(ctx context.Context, id uuid.UUID) error {
	if _, err := r.repo.GetServiceByID(ctx, id); err != nil {
		return err
	}

	busy, err := r.ledger.ServiceHasActiveAppointments(ctx, id)
	if err != nil {
		return fmt.Errorf("check service appointments: %w", err)
	}
	if busy {
		return ErrServiceInUse
	}

	return r.repo.DeleteService(ctx, id)
}
