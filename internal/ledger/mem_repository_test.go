package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedAppointment(name string, start time.Time, pos *int) *Appointment {
	return &Appointment{
		ID:            uuid.New(),
		CustomerName:  name,
		ServiceID:     uuid.New(),
		StartTime:     start,
		Status:        StatusScheduled,
		QueuePosition: pos,
	}
}

func intPtr(n int) *int { return &n }

func TestMemQueueOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMemRepository()

	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	// Position ranks above timestamps; entries without a position fall to
	// the back and order by start time.
	late, err := repo.CreateAppointment(ctx, queuedAppointment("Late", start.Add(3*time.Hour), intPtr(2)))
	require.NoError(t, err)
	early, err := repo.CreateAppointment(ctx, queuedAppointment("Early", start, intPtr(1)))
	require.NoError(t, err)
	unranked, err := repo.CreateAppointment(ctx, queuedAppointment("Unranked", start.Add(time.Hour), nil))
	require.NoError(t, err)

	queue, err := repo.ListQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 3)

	assert.Equal(t, early.ID, queue[0].ID)
	assert.Equal(t, late.ID, queue[1].ID)
	assert.Equal(t, unranked.ID, queue[2].ID)
}

func TestMemRerankQueue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemRepository()

	start := time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		a, err := repo.CreateAppointment(ctx,
			queuedAppointment(fmt.Sprintf("Customer %d", i), start.Add(time.Duration(i)*time.Hour), intPtr(i+1)))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	require.NoError(t, repo.DeleteAppointment(ctx, ids[0]))
	require.NoError(t, repo.RerankQueue(ctx))

	queue, err := repo.ListQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, 1, *queue[0].QueuePosition)
	assert.Equal(t, ids[1], queue[0].ID)
	assert.Equal(t, 2, *queue[1].QueuePosition)
	assert.Equal(t, ids[2], queue[1].ID)
}

func TestMemAssignStaff(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the queue position", func(t *testing.T) {
		repo := NewMemRepository()
		a, err := repo.CreateAppointment(ctx, queuedAppointment("Alice", time.Now(), intPtr(1)))
		require.NoError(t, err)

		staffID := uuid.New()
		assigned, err := repo.AssignStaff(ctx, a.ID, staffID)
		require.NoError(t, err)
		require.NotNil(t, assigned.StaffID)
		assert.Equal(t, staffID, *assigned.StaffID)
		assert.Nil(t, assigned.QueuePosition)
	})

	t.Run("second assignment loses", func(t *testing.T) {
		repo := NewMemRepository()
		a, err := repo.CreateAppointment(ctx, queuedAppointment("Alice", time.Now(), intPtr(1)))
		require.NoError(t, err)

		_, err = repo.AssignStaff(ctx, a.ID, uuid.New())
		require.NoError(t, err)

		_, err = repo.AssignStaff(ctx, a.ID, uuid.New())
		assert.ErrorIs(t, err, ErrAppointmentNotQueued)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		repo := NewMemRepository()
		_, err := repo.AssignStaff(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestMemUpdateAppointmentStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemRepository()

	a, err := repo.CreateAppointment(ctx, queuedAppointment("Alice", time.Now(), intPtr(1)))
	require.NoError(t, err)

	updated, err := repo.UpdateAppointmentStatus(ctx, a.ID, StatusScheduled, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Nil(t, updated.QueuePosition)

	// The precondition no longer holds.
	_, err = repo.UpdateAppointmentStatus(ctx, a.ID, StatusScheduled, StatusCompleted)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestMemActivityCap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemRepository()

	const keep = 5
	for i := 0; i < keep+3; i++ {
		err := repo.InsertActivity(ctx, ActivityEntry{
			Action:  ActionQueue,
			Message: fmt.Sprintf("entry %d", i),
		}, keep)
		require.NoError(t, err)
	}

	entries, err := repo.ListActivity(ctx, 50)
	require.NoError(t, err)
	require.Len(t, entries, keep)

	// Newest first, oldest trimmed away.
	assert.Equal(t, "entry 7", entries[0].Message)
	assert.Equal(t, "entry 3", entries[keep-1].Message)
}
