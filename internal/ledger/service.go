package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/queuedesk/appointment-service/internal/auth"
	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/config"
	redisclient "github.com/queuedesk/appointment-service/internal/redis"
)

var (
	ErrValidation        = errors.New("invalid appointment input")
	ErrStaffNotEligible  = errors.New("staff member is not eligible for this service")
	ErrCapacityExceeded  = errors.New("staff member is at daily capacity")
	ErrTimeConflict      = errors.New("staff member already booked at this time")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoEligibleStaff   = errors.New("no eligible staff with free capacity")
	ErrStaffDayBusy      = errors.New("staff member is being booked, please retry")
)

const queueLockKey = "lock:queue"

func staffDayKey(staffID uuid.UUID, day string) string {
	return fmt.Sprintf("lock:staff:%s:day:%s", staffID, day)
}

// Service owns the appointment ledger and the assignment engine. Every
// capacity or conflict check is re-run inside the staff-day lock, so a
// result observed before the lock never decides the write.
type Service struct {
	repo    Repository
	catalog *catalog.Registry
	locker  redisclient.Locker
	cfg     config.Config
	log     *logrus.Logger
}

func NewService(repo Repository, reg *catalog.Registry, locker redisclient.Locker, cfg config.Config, log *logrus.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: reg,
		locker:  locker,
		cfg:     cfg,
		log:     log,
	}
}

type CreateInput struct {
	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	ServiceID     uuid.UUID
	StaffID       *uuid.UUID
	StartTime     time.Time
}

// Create books an appointment directly when a staff member is given, or
// enqueues it at the tail of the waiting queue when none is.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrValidation)
	}

	svc, err := s.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, catalog.ErrServiceInactive
	}

	appt := &Appointment{
		ID:            uuid.New(),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		ServiceID:     in.ServiceID,
		StartTime:     in.StartTime,
		Status:        StatusScheduled,
	}

	if in.StaffID == nil {
		return s.enqueue(ctx, appt)
	}

	staff, err := s.catalog.GetStaff(ctx, *in.StaffID)
	if err != nil {
		return nil, err
	}

	var created *Appointment
	err = s.withLock(ctx, staffDayKey(staff.ID, DayOf(in.StartTime)), func(lockCtx context.Context) error {
		if err := s.checkAssignable(lockCtx, staff, svc, in.StartTime, uuid.Nil); err != nil {
			return err
		}

		staffID := staff.ID
		appt.StaffID = &staffID

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, ActionCreate, created.ID,
		fmt.Sprintf("Appointment for %q scheduled with %s", created.CustomerName, staff.Name))
	return created, nil
}

func (s *Service) enqueue(ctx context.Context, appt *Appointment) (*Appointment, error) {
	var created *Appointment

	err := s.withLock(ctx, queueLockKey, func(lockCtx context.Context) error {
		n, err := s.repo.QueueLength(lockCtx)
		if err != nil {
			return fmt.Errorf("queue length: %w", err)
		}

		pos := n + 1
		appt.QueuePosition = &pos

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, ActionQueue, created.ID,
		fmt.Sprintf("%s added to waiting queue (position %d)", created.CustomerName, *created.QueuePosition))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAppointments(ctx)
}

type UpdatePatch struct {
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	ServiceID     *uuid.UUID
	StartTime     *time.Time
}

// Update edits a scheduled appointment. A start-time change on an
// assigned appointment re-runs capacity and conflict checks for the new
// slot, skipping the row being moved.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appt.Status)
	}

	if patch.CustomerName != nil {
		if strings.TrimSpace(*patch.CustomerName) == "" {
			return nil, fmt.Errorf("%w: customer name is required", ErrValidation)
		}
		appt.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.CustomerEmail != nil {
		appt.CustomerEmail = patch.CustomerEmail
	}
	if patch.CustomerPhone != nil {
		appt.CustomerPhone = patch.CustomerPhone
	}

	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}
	if patch.ServiceID != nil && *patch.ServiceID != appt.ServiceID {
		svc, err = s.catalog.GetService(ctx, *patch.ServiceID)
		if err != nil {
			return nil, err
		}
		if !svc.IsActive {
			return nil, catalog.ErrServiceInactive
		}
		appt.ServiceID = *patch.ServiceID
	}

	timeChanged := patch.StartTime != nil && !patch.StartTime.Equal(appt.StartTime)
	if timeChanged {
		appt.StartTime = *patch.StartTime
	}

	if appt.StaffID == nil {
		updated, err := s.repo.UpdateAppointment(ctx, appt)
		if err != nil {
			return nil, err
		}
		s.logActivity(ctx, ActionUpdate, updated.ID,
			fmt.Sprintf("Appointment for %q updated", updated.CustomerName))
		return updated, nil
	}

	// Assigned: the staff member must still be able to perform the
	// (possibly new) service at the (possibly new) time.
	staff, err := s.catalog.GetStaff(ctx, *appt.StaffID)
	if err != nil {
		return nil, err
	}
	if staff.StaffTypeID != svc.RequiredStaffTypeID {
		return nil, ErrStaffNotEligible
	}

	var updated *Appointment
	err = s.withLock(ctx, staffDayKey(staff.ID, DayOf(appt.StartTime)), func(lockCtx context.Context) error {
		if timeChanged {
			if err := s.checkCapacityAndConflict(lockCtx, staff, appt.StartTime, appt.ID); err != nil {
				return err
			}
		}
		updated, err = s.repo.UpdateAppointment(lockCtx, appt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logActivity(ctx, ActionUpdate, updated.ID,
		fmt.Sprintf("Appointment for %q updated", updated.CustomerName))
	return updated, nil
}

// SetStatus moves a scheduled appointment to a terminal status. Terminal
// statuses are frozen; there is no resurrection.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	if to == StatusScheduled {
		return nil, fmt.Errorf("%w: cannot transition back to scheduled", ErrInvalidTransition)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: appointment is already %s", ErrInvalidTransition, appt.Status)
	}

	wasQueued := appt.Queued()

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	if wasQueued {
		if err := s.rerankQueue(ctx); err != nil {
			s.log.WithError(err).Warn("queue rerank after status change failed")
		}
	}

	action := ActionStatus
	msg := fmt.Sprintf("Appointment for %q marked as %s", updated.CustomerName, to)
	if to == StatusCancelled {
		action = ActionCancel
		msg = fmt.Sprintf("Appointment for %q cancelled", updated.CustomerName)
		if wasQueued {
			msg = fmt.Sprintf("Appointment for %q cancelled from queue", updated.CustomerName)
		}
	}
	s.logActivity(ctx, action, updated.ID, msg)

	return updated, nil
}

// Delete removes an appointment outright. Cancellation is the canonical
// terminal state; hard delete exists for administrative cleanup.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}

	if appt.Queued() {
		if err := s.rerankQueue(ctx); err != nil {
			s.log.WithError(err).Warn("queue rerank after delete failed")
		}
	}

	s.logActivity(ctx, ActionDelete, id,
		fmt.Sprintf("Appointment for %q deleted", appt.CustomerName))
	return nil
}

// Queue returns the waiting queue: unassigned scheduled appointments in
// position order. The view is recomputed on every read.
func (s *Service) Queue(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListQueue(ctx)
}

// ManualAssign moves a queued appointment to the given staff member.
// Eligibility, capacity and conflict are verified inside the staff-day
// lock at the moment of assignment.
func (s *Service) ManualAssign(ctx context.Context, appointmentID, staffID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appt.Queued() {
		return nil, ErrAppointmentNotQueued
	}

	staff, err := s.catalog.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	return s.assign(ctx, appt, staff, svc)
}

// AutoAssign picks the eligible staff member with the lowest load on the
// appointment's day, ties broken by lexicographically smallest staff id,
// and delegates to the manual path. When no candidate remains the
// appointment stays queued; ErrNoEligibleStaff is recoverable.
func (s *Service) AutoAssign(ctx context.Context, appointmentID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !appt.Queued() {
		return nil, ErrAppointmentNotQueued
	}

	svc, err := s.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.catalog.EligibleStaffFor(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	day := DayOf(appt.StartTime)

	var best *catalog.Staff
	bestLoad := 0
	for i := range eligible {
		cand := &eligible[i]
		load, err := s.repo.CountStaffActiveOnDay(ctx, cand.ID, day, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("load for staff %s: %w", cand.ID, err)
		}
		if load >= cand.DailyCapacity {
			continue
		}
		// eligible is ordered by id, so the first minimum wins and the
		// choice is deterministic for a fixed snapshot.
		if best == nil || load < bestLoad {
			best = cand
			bestLoad = load
		}
	}
	if best == nil {
		return nil, ErrNoEligibleStaff
	}

	return s.assign(ctx, appt, best, svc)
}

// assign is the single validated path that sets an appointment's staff
// reference. The queued-state check is repeated inside the lock because
// the read that found the appointment ran outside it.
func (s *Service) assign(ctx context.Context, appt *Appointment, staff *catalog.Staff, svc *catalog.Service) (*Appointment, error) {
	var assigned *Appointment

	err := s.withLock(ctx, staffDayKey(staff.ID, DayOf(appt.StartTime)), func(lockCtx context.Context) error {
		fresh, err := s.repo.GetAppointmentByID(lockCtx, appt.ID)
		if err != nil {
			return err
		}
		if !fresh.Queued() {
			return ErrAppointmentNotQueued
		}

		if err := s.checkAssignable(lockCtx, staff, svc, fresh.StartTime, uuid.Nil); err != nil {
			return err
		}

		assigned, err = s.repo.AssignStaff(lockCtx, fresh.ID, staff.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.rerankQueue(ctx); err != nil {
		s.log.WithError(err).Warn("queue rerank after assignment failed")
	}

	s.logActivity(ctx, ActionAssignment, assigned.ID,
		fmt.Sprintf("Appointment for %q assigned to %s", assigned.CustomerName, staff.Name))
	return assigned, nil
}

func (s *Service) checkAssignable(ctx context.Context, staff *catalog.Staff, svc *catalog.Service, at time.Time, exclude uuid.UUID) error {
	if staff.StaffTypeID != svc.RequiredStaffTypeID {
		return ErrStaffNotEligible
	}
	if staff.Availability != catalog.AvailabilityAvailable {
		return ErrStaffNotEligible
	}
	return s.checkCapacityAndConflict(ctx, staff, at, exclude)
}

func (s *Service) checkCapacityAndConflict(ctx context.Context, staff *catalog.Staff, at time.Time, exclude uuid.UUID) error {
	load, err := s.repo.CountStaffActiveOnDay(ctx, staff.ID, DayOf(at), exclude)
	if err != nil {
		return fmt.Errorf("staff load: %w", err)
	}
	if load >= staff.DailyCapacity {
		return ErrCapacityExceeded
	}

	booked, err := s.repo.StaffBookedAt(ctx, staff.ID, at, exclude)
	if err != nil {
		return fmt.Errorf("conflict check: %w", err)
	}
	if booked {
		return ErrTimeConflict
	}

	return nil
}

func (s *Service) rerankQueue(ctx context.Context) error {
	return s.withLock(ctx, queueLockKey, func(lockCtx context.Context) error {
		return s.repo.RerankQueue(lockCtx)
	})
}

func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, key, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrStaffDayBusy
	}
	return err
}

// Activity returns the retained activity log, most recent first.
func (s *Service) Activity(ctx context.Context) ([]ActivityEntry, error) {
	return s.repo.ListActivity(ctx, s.cfg.ActivityLogCap)
}

func (s *Service) logActivity(ctx context.Context, action string, appointmentID uuid.UUID, message string) {
	apptID := appointmentID

	e := ActivityEntry{
		Action:        action,
		Actor:         auth.Subject(ctx),
		Message:       message,
		AppointmentID: &apptID,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertActivity(ctx, e, s.cfg.ActivityLogCap); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":         action,
			"appointment_id": appointmentID,
		}).WithError(err).Error("failed to insert activity entry")
	}
}
