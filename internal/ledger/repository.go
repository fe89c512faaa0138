package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAppointmentNotQueued = errors.New("appointment is not in the queue")
)

// DayCounts summarizes one calendar day of the ledger for the dashboard.
type DayCounts struct {
	Total     int
	Scheduled int
	Completed int
}

// Repository contains all DB interactions needed by the service.
//
// The exclude argument on the counting queries skips one appointment id,
// so reschedule validation does not count the row being moved. Pass
// uuid.Nil to count everything.
type Repository interface {
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// UpdateAppointmentStatus transitions id from one status to another,
	// clearing any queue position. The update is conditional on the
	// current status so concurrent transitions cannot both apply.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// AssignStaff sets the staff reference, conditional on the row still
	// being queued. Returns ErrAppointmentNotQueued if it no longer is.
	AssignStaff(ctx context.Context, id, staffID uuid.UUID) (*Appointment, error)

	// Queue view: unassigned scheduled appointments in queue order.
	ListQueue(ctx context.Context) ([]Appointment, error)
	QueueLength(ctx context.Context) (int, error)
	// RerankQueue renumbers queue positions densely (1..n) in queue
	// order. Called after every dequeue.
	RerankQueue(ctx context.Context) error

	// Capacity and conflict checks.
	CountStaffActiveOnDay(ctx context.Context, staffID uuid.UUID, day string, exclude uuid.UUID) (int, error)
	StaffBookedAt(ctx context.Context, staffID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error)

	// Delete guards used by the catalog.
	StaffHasActiveAppointments(ctx context.Context, staffID uuid.UUID) (bool, error)
	ServiceHasActiveAppointments(ctx context.Context, serviceID uuid.UUID) (bool, error)

	CountOnDay(ctx context.Context, day string) (DayCounts, error)

	// Activity log. Insert trims the log to keep at most cap entries.
	InsertActivity(ctx context.Context, e ActivityEntry, cap int) error
	ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
}
