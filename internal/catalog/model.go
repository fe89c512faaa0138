package catalog

import (
	"time"

	"github.com/google/uuid"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityOnLeave   Availability = "on_leave"
)

// StaffType is a category of staff, e.g. "Doctor". Services declare the
// type they require and staff members carry exactly one.
type StaffType struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Staff struct {
	ID            uuid.UUID
	Name          string
	Email         *string
	Phone         *string
	StaffTypeID   uuid.UUID
	DailyCapacity int
	Availability  Availability
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Service struct {
	ID                  uuid.UUID
	Name                string
	DurationMinutes     int
	PriceCents          int
	RequiredStaffTypeID uuid.UUID
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
