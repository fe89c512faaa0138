package ledger

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuedesk/appointment-service/internal/auth"
	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/config"
	redisclient "github.com/queuedesk/appointment-service/internal/redis"
)

type fixture struct {
	svc      *Service
	repo     *MemRepository
	registry *catalog.Registry

	doctorType  uuid.UUID
	nurseType   uuid.UUID
	checkup     uuid.UUID // requires doctor
	vaccination uuid.UUID // requires nurse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catRepo := catalog.NewMemRepository()
	repo := NewMemRepository()
	registry := catalog.NewRegistry(catRepo, repo)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Config{ActivityLogCap: 50}
	svc := NewService(repo, registry, redisclient.NewLocalLocker(), cfg, log)

	ctx := context.Background()

	doctor, err := registry.CreateStaffType(ctx, "Doctor")
	require.NoError(t, err)
	nurse, err := registry.CreateStaffType(ctx, "Nurse")
	require.NoError(t, err)

	checkup, err := registry.CreateService(ctx, catalog.ServiceInput{
		Name:                "General Checkup",
		DurationMinutes:     30,
		PriceCents:          5000,
		RequiredStaffTypeID: doctor.ID,
	})
	require.NoError(t, err)

	vaccination, err := registry.CreateService(ctx, catalog.ServiceInput{
		Name:                "Vaccination",
		DurationMinutes:     15,
		PriceCents:          2500,
		RequiredStaffTypeID: nurse.ID,
	})
	require.NoError(t, err)

	return &fixture{
		svc:         svc,
		repo:        repo,
		registry:    registry,
		doctorType:  doctor.ID,
		nurseType:   nurse.ID,
		checkup:     checkup.ID,
		vaccination: vaccination.ID,
	}
}

func (f *fixture) addStaff(t *testing.T, name string, typeID uuid.UUID, capacity int, avail catalog.Availability) *catalog.Staff {
	t.Helper()
	s, err := f.registry.CreateStaff(context.Background(), catalog.StaffInput{
		Name:          name,
		StaffTypeID:   typeID,
		DailyCapacity: capacity,
		Availability:  avail,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) enqueueAppointment(t *testing.T, name string, serviceID uuid.UUID, start time.Time) *Appointment {
	t.Helper()
	appt, err := f.svc.Create(context.Background(), CreateInput{
		CustomerName: name,
		ServiceID:    serviceID,
		StartTime:    start,
	})
	require.NoError(t, err)
	return appt
}

var baseTime = time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("direct booking with eligible staff succeeds", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		appt, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)
		require.NotNil(t, appt.StaffID)
		assert.Equal(t, doc.ID, *appt.StaffID)
		assert.Equal(t, StatusScheduled, appt.Status)
		assert.Nil(t, appt.QueuePosition)
	})

	t.Run("without staff lands at the tail of the queue", func(t *testing.T) {
		f := newFixture(t)

		first := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		second := f.enqueueAppointment(t, "Bob", f.checkup, baseTime.Add(time.Hour))

		require.NotNil(t, first.QueuePosition)
		require.NotNil(t, second.QueuePosition)
		assert.Equal(t, 1, *first.QueuePosition)
		assert.Equal(t, 2, *second.QueuePosition)
	})

	t.Run("rejects blank customer name", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "   ",
			ServiceID:    f.checkup,
			StartTime:    baseTime,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown service", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    uuid.New(),
			StartTime:    baseTime,
		})
		assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	})

	t.Run("rejects inactive service", func(t *testing.T) {
		f := newFixture(t)
		inactive := false
		_, err := f.registry.UpdateService(ctx, f.checkup, catalog.ServicePatch{IsActive: &inactive})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StartTime:    baseTime,
		})
		assert.ErrorIs(t, err, catalog.ErrServiceInactive)
	})

	t.Run("direct booking with wrong staff type fails", func(t *testing.T) {
		f := newFixture(t)
		nurse := f.addStaff(t, "Nina", f.nurseType, 3, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &nurse.ID,
			StartTime:    baseTime,
		})
		assert.ErrorIs(t, err, ErrStaffNotEligible)
	})
}

func TestCapacityInvariant(t *testing.T) {
	ctx := context.Background()

	t.Run("booking beyond daily capacity fails", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 2, catalog.AvailabilityAvailable)

		for i := 0; i < 2; i++ {
			_, err := f.svc.Create(ctx, CreateInput{
				CustomerName: "Customer",
				ServiceID:    f.checkup,
				StaffID:      &doc.ID,
				StartTime:    baseTime.Add(time.Duration(i) * time.Hour),
			})
			require.NoError(t, err)
		}

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "One Too Many",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime.Add(3 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("a different day has fresh capacity", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 1, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime.Add(24 * time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled appointments release capacity", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 1, catalog.AvailabilityAvailable)

		booked, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, booked.ID, StatusCancelled)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime.Add(time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("completed appointments still count toward the day", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 1, catalog.AvailabilityAvailable)

		booked, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.SetStatus(ctx, booked.ID, StatusCompleted)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime.Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
}

func TestTimeConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("same staff cannot hold two appointments at one timestamp", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 5, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		assert.ErrorIs(t, err, ErrTimeConflict)
	})

	t.Run("different staff can share a timestamp", func(t *testing.T) {
		f := newFixture(t)
		docA := f.addStaff(t, "Dr. Adams", f.doctorType, 5, catalog.AvailabilityAvailable)
		docB := f.addStaff(t, "Dr. Brown", f.doctorType, 5, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &docA.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &docB.ID,
			StartTime:    baseTime,
		})
		assert.NoError(t, err)
	})
}

func TestQueueCompaction(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelling the middle entry closes the gap", func(t *testing.T) {
		f := newFixture(t)

		a := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		b := f.enqueueAppointment(t, "Bob", f.checkup, baseTime.Add(time.Hour))
		c := f.enqueueAppointment(t, "Carol", f.checkup, baseTime.Add(2*time.Hour))

		_, err := f.svc.SetStatus(ctx, b.ID, StatusCancelled)
		require.NoError(t, err)

		queue, err := f.svc.Queue(ctx)
		require.NoError(t, err)
		require.Len(t, queue, 2)

		assert.Equal(t, a.ID, queue[0].ID)
		assert.Equal(t, 1, *queue[0].QueuePosition)
		assert.Equal(t, c.ID, queue[1].ID)
		assert.Equal(t, 2, *queue[1].QueuePosition)
	})

	t.Run("assignment removes the entry and re-ranks the rest", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 5, catalog.AvailabilityAvailable)

		a := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		b := f.enqueueAppointment(t, "Bob", f.checkup, baseTime.Add(time.Hour))

		_, err := f.svc.ManualAssign(ctx, a.ID, doc.ID)
		require.NoError(t, err)

		queue, err := f.svc.Queue(ctx)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, b.ID, queue[0].ID)
		assert.Equal(t, 1, *queue[0].QueuePosition)
	})

	t.Run("hard delete also re-ranks", func(t *testing.T) {
		f := newFixture(t)

		a := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		b := f.enqueueAppointment(t, "Bob", f.checkup, baseTime.Add(time.Hour))

		require.NoError(t, f.svc.Delete(ctx, a.ID))

		queue, err := f.svc.Queue(ctx)
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, b.ID, queue[0].ID)
		assert.Equal(t, 1, *queue[0].QueuePosition)
	})
}

func TestManualAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns a queued appointment to an eligible staff member", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		assigned, err := f.svc.ManualAssign(ctx, appt.ID, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, assigned.StaffID)
		assert.Equal(t, doc.ID, *assigned.StaffID)
		assert.Nil(t, assigned.QueuePosition)
	})

	t.Run("rejects a staff member of the wrong type", func(t *testing.T) {
		f := newFixture(t)
		nurse := f.addStaff(t, "Nina", f.nurseType, 3, catalog.AvailabilityAvailable)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		_, err := f.svc.ManualAssign(ctx, appt.ID, nurse.ID)
		assert.ErrorIs(t, err, ErrStaffNotEligible)
	})

	t.Run("rejects a staff member on leave", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityOnLeave)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		_, err := f.svc.ManualAssign(ctx, appt.ID, doc.ID)
		assert.ErrorIs(t, err, ErrStaffNotEligible)
	})

	t.Run("rejects an appointment that is not queued", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.ManualAssign(ctx, appt.ID, doc.ID)
		require.NoError(t, err)

		_, err = f.svc.ManualAssign(ctx, appt.ID, doc.ID)
		assert.ErrorIs(t, err, ErrAppointmentNotQueued)
	})

	t.Run("capacity failure leaves the appointment queued", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 1, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		queued := f.enqueueAppointment(t, "Bob", f.checkup, baseTime.Add(time.Hour))

		_, err = f.svc.ManualAssign(ctx, queued.ID, doc.ID)
		assert.ErrorIs(t, err, ErrCapacityExceeded)

		fresh, err := f.svc.Get(ctx, queued.ID)
		require.NoError(t, err)
		assert.True(t, fresh.Queued())
		require.NotNil(t, fresh.QueuePosition)
		assert.Equal(t, 1, *fresh.QueuePosition)
	})
}

func TestAutoAssign(t *testing.T) {
	ctx := context.Background()

	t.Run("picks the eligible staff member with the lowest load", func(t *testing.T) {
		f := newFixture(t)
		busy := f.addStaff(t, "Dr. Busy", f.doctorType, 5, catalog.AvailabilityAvailable)
		idle := f.addStaff(t, "Dr. Idle", f.doctorType, 5, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Warmup",
			ServiceID:    f.checkup,
			StaffID:      &busy.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime.Add(time.Hour))

		assigned, err := f.svc.AutoAssign(ctx, queued.ID)
		require.NoError(t, err)
		require.NotNil(t, assigned.StaffID)
		assert.Equal(t, idle.ID, *assigned.StaffID)
	})

	t.Run("breaks load ties by smallest staff id", func(t *testing.T) {
		f := newFixture(t)
		a := f.addStaff(t, "Dr. Adams", f.doctorType, 5, catalog.AvailabilityAvailable)
		b := f.addStaff(t, "Dr. Brown", f.doctorType, 5, catalog.AvailabilityAvailable)

		want := a.ID
		if b.ID.String() < a.ID.String() {
			want = b.ID
		}

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		assigned, err := f.svc.AutoAssign(ctx, queued.ID)
		require.NoError(t, err)
		require.NotNil(t, assigned.StaffID)
		assert.Equal(t, want, *assigned.StaffID)
	})

	t.Run("skips staff on leave", func(t *testing.T) {
		f := newFixture(t)
		f.addStaff(t, "Dr. Gone", f.doctorType, 5, catalog.AvailabilityOnLeave)
		avail := f.addStaff(t, "Dr. Here", f.doctorType, 5, catalog.AvailabilityAvailable)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		assigned, err := f.svc.AutoAssign(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, avail.ID, *assigned.StaffID)
	})

	t.Run("no candidate leaves the appointment in place", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Full", f.doctorType, 1, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Warmup",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime.Add(time.Hour))

		_, err = f.svc.AutoAssign(ctx, queued.ID)
		assert.ErrorIs(t, err, ErrNoEligibleStaff)

		fresh, err := f.svc.Get(ctx, queued.ID)
		require.NoError(t, err)
		assert.True(t, fresh.Queued())
		require.NotNil(t, fresh.QueuePosition)
		assert.Equal(t, 1, *fresh.QueuePosition)
	})

	t.Run("repeated failures are idempotent", func(t *testing.T) {
		f := newFixture(t)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		for i := 0; i < 3; i++ {
			_, err := f.svc.AutoAssign(ctx, queued.ID)
			assert.ErrorIs(t, err, ErrNoEligibleStaff)
		}

		fresh, err := f.svc.Get(ctx, queued.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, *fresh.QueuePosition)
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("scheduled to completed", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		appt, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		updated, err := f.svc.SetStatus(ctx, appt.ID, StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.Status)
	})

	t.Run("terminal statuses are frozen", func(t *testing.T) {
		f := newFixture(t)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.SetStatus(ctx, appt.ID, StatusCancelled)
		require.NoError(t, err)

		for _, to := range []Status{StatusCompleted, StatusNoShow, StatusCancelled} {
			_, err := f.svc.SetStatus(ctx, appt.ID, to)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	})

	t.Run("cannot transition back to scheduled", func(t *testing.T) {
		f := newFixture(t)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.SetStatus(ctx, appt.ID, StatusScheduled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		f := newFixture(t)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.SetStatus(ctx, appt.ID, Status("archived"))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("edits customer fields on a queued appointment", func(t *testing.T) {
		f := newFixture(t)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		name := "Alice Cooper"
		email := "alice@example.com"
		updated, err := f.svc.Update(ctx, appt.ID, UpdatePatch{
			CustomerName:  &name,
			CustomerEmail: &email,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", updated.CustomerName)
		require.NotNil(t, updated.CustomerEmail)
		assert.Equal(t, "alice@example.com", *updated.CustomerEmail)
		assert.Equal(t, 1, *updated.QueuePosition)
	})

	t.Run("terminal appointments cannot be edited", func(t *testing.T) {
		f := newFixture(t)

		appt := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.SetStatus(ctx, appt.ID, StatusCancelled)
		require.NoError(t, err)

		name := "New Name"
		_, err = f.svc.Update(ctx, appt.ID, UpdatePatch{CustomerName: &name})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("moving an assigned appointment re-checks the new slot", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 5, catalog.AvailabilityAvailable)

		_, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		second, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Bob",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime.Add(time.Hour),
		})
		require.NoError(t, err)

		conflicting := baseTime
		_, err = f.svc.Update(ctx, second.ID, UpdatePatch{StartTime: &conflicting})
		assert.ErrorIs(t, err, ErrTimeConflict)
	})

	t.Run("moving within the same day at full capacity is allowed", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 1, catalog.AvailabilityAvailable)

		appt, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		later := baseTime.Add(2 * time.Hour)
		updated, err := f.svc.Update(ctx, appt.ID, UpdatePatch{StartTime: &later})
		require.NoError(t, err)
		assert.True(t, later.Equal(updated.StartTime))
	})

	t.Run("service change on an assigned appointment re-checks eligibility", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		appt, err := f.svc.Create(ctx, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StaffID:      &doc.ID,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, appt.ID, UpdatePatch{ServiceID: &f.vaccination})
		assert.ErrorIs(t, err, ErrStaffNotEligible)
	})
}

func TestActivityLog(t *testing.T) {
	ctx := context.Background()

	t.Run("mutations append entries newest first", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.ManualAssign(ctx, queued.ID, doc.ID)
		require.NoError(t, err)

		entries, err := f.svc.Activity(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, ActionAssignment, entries[0].Action)
		assert.Equal(t, ActionQueue, entries[1].Action)
	})

	t.Run("entries record the authenticated actor", func(t *testing.T) {
		f := newFixture(t)

		asReception := auth.WithSubject(context.Background(), "reception-1")
		_, err := f.svc.Create(asReception, CreateInput{
			CustomerName: "Alice",
			ServiceID:    f.checkup,
			StartTime:    baseTime,
		})
		require.NoError(t, err)

		entries, err := f.svc.Activity(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "reception-1", entries[0].Actor)
	})

	t.Run("anonymous mutations leave the actor empty", func(t *testing.T) {
		f := newFixture(t)

		f.enqueueAppointment(t, "Alice", f.checkup, baseTime)

		entries, err := f.svc.Activity(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Empty(t, entries[0].Actor)
	})

	t.Run("cancelling from the queue says so", func(t *testing.T) {
		f := newFixture(t)

		queued := f.enqueueAppointment(t, "Alice", f.checkup, baseTime)
		_, err := f.svc.SetStatus(ctx, queued.ID, StatusCancelled)
		require.NoError(t, err)

		entries, err := f.svc.Activity(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, ActionCancel, entries[0].Action)
		assert.Contains(t, entries[0].Message, "cancelled from queue")
	})
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	doc := f.addStaff(t, "Dr. Adams", f.doctorType, 3, catalog.AvailabilityAvailable)

	_, err := f.svc.Create(ctx, CreateInput{
		CustomerName: "Alice",
		ServiceID:    f.checkup,
		StaffID:      &doc.ID,
		StartTime:    baseTime,
	})
	require.NoError(t, err)

	done, err := f.svc.Create(ctx, CreateInput{
		CustomerName: "Bob",
		ServiceID:    f.checkup,
		StaffID:      &doc.ID,
		StartTime:    baseTime.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, done.ID, StatusCompleted)
	require.NoError(t, err)

	f.enqueueAppointment(t, "Carol", f.checkup, baseTime.Add(2*time.Hour))

	stats, err := f.svc.Dashboard(ctx, baseTime)
	require.NoError(t, err)

	assert.Equal(t, DayOf(baseTime), stats.Day)
	assert.Equal(t, 3, stats.TotalToday)
	assert.Equal(t, 2, stats.ScheduledToday)
	assert.Equal(t, 1, stats.CompletedToday)
	assert.Equal(t, 1, stats.InQueue)

	require.Len(t, stats.StaffLoad, 1)
	assert.Equal(t, doc.ID, stats.StaffLoad[0].StaffID)
	assert.Equal(t, 2, stats.StaffLoad[0].Load)
}
