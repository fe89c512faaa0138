package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrStaffTypeNotFound = errors.New("staff type not found")
	ErrStaffNotFound     = errors.New("staff not found")
	ErrServiceNotFound   = errors.New("service not found")
)

// Repository contains all DB interactions needed by the registry.
type Repository interface {
	CreateStaffType(ctx context.Context, st *StaffType) (*StaffType, error)
	GetStaffTypeByID(ctx context.Context, id uuid.UUID) (*StaffType, error)
	ListStaffTypes(ctx context.Context) ([]StaffType, error)
	UpdateStaffType(ctx context.Context, st *StaffType) (*StaffType, error)
	DeleteStaffType(ctx context.Context, id uuid.UUID) error

	CreateStaff(ctx context.Context, s *Staff) (*Staff, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	// ListStaffByType returns staff of one type, ordered by id for a
	// stable auto-assign tie-break.
	ListStaffByType(ctx context.Context, staffTypeID uuid.UUID) ([]Staff, error)
	UpdateStaff(ctx context.Context, s *Staff) (*Staff, error)
	DeleteStaff(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, svc *Service) (*Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	UpdateService(ctx context.Context, svc *Service) (*Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	// CountStaffOfType backs the staff-type delete guard.
	CountStaffOfType(ctx context.Context, staffTypeID uuid.UUID) (int, error)
	// CountServicesRequiringType backs the staff-type delete guard.
	CountServicesRequiringType(ctx context.Context, staffTypeID uuid.UUID) (int, error)
}
