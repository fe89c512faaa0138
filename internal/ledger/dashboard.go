package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type StaffLoad struct {
	StaffID  uuid.UUID
	Name     string
	Load     int
	Capacity int
}

type DashboardStats struct {
	Day            string
	TotalToday     int
	ScheduledToday int
	CompletedToday int
	InQueue        int
	StaffLoad      []StaffLoad
}

// Dashboard summarizes the given day: appointment counts plus per-staff
// load against capacity.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	day := DayOf(now)

	counts, err := s.repo.CountOnDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("day counts: %w", err)
	}

	inQueue, err := s.repo.QueueLength(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue length: %w", err)
	}

	staff, err := s.catalog.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	loads := make([]StaffLoad, 0, len(staff))
	for _, st := range staff {
		load, err := s.repo.CountStaffActiveOnDay(ctx, st.ID, day, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("load for staff %s: %w", st.ID, err)
		}
		loads = append(loads, StaffLoad{
			StaffID:  st.ID,
			Name:     st.Name,
			Load:     load,
			Capacity: st.DailyCapacity,
		})
	}

	return &DashboardStats{
		Day:            day,
		TotalToday:     counts.Total,
		ScheduledToday: counts.Scheduled,
		CompletedToday: counts.Completed,
		InQueue:        inQueue,
		StaffLoad:      loads,
	}, nil
}
