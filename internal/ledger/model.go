package ledger

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is the central mutable entity. StaffID is nil while the
// appointment waits in the queue; it is set exactly once by assignment.
// QueuePosition is a materialized rank over the waiting queue and is
// only meaningful while StaffID is nil and the status is scheduled.
type Appointment struct {
	ID            uuid.UUID
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	ServiceID     uuid.UUID
	StaffID       *uuid.UUID
	StartTime     time.Time
	Status        Status
	QueuePosition *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Queued reports whether the appointment currently waits for assignment.
func (a *Appointment) Queued() bool {
	return a.StaffID == nil && a.Status == StatusScheduled
}

// ActivityEntry is an append-only audit record written as a side effect
// of every mutation. The log is capped to the most recent entries.
type ActivityEntry struct {
	ID            int64
	Action        string
	Actor         string // authenticated subject, empty when auth is disabled
	Message       string
	AppointmentID *uuid.UUID
	CreatedAt     time.Time
}

const (
	ActionCreate     = "create"
	ActionQueue      = "queue"
	ActionAssignment = "assignment"
	ActionStatus     = "status"
	ActionCancel     = "cancel"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
)

// DayOf maps a timestamp to its UTC calendar day. Daily capacity and the
// staff-day lock are both keyed on this value.
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
