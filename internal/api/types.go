package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/ledger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Appointments

type CreateAppointmentRequest struct {
	CustomerName  string  `json:"customer_name"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	ServiceID     string  `json:"service_id"`
	StaffID       *string `json:"staff_id,omitempty"`
	StartTime     string  `json:"start_time"`
}

type UpdateAppointmentRequest struct {
	CustomerName  *string `json:"customer_name,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	ServiceID     *string `json:"service_id,omitempty"`
	StartTime     *string `json:"start_time,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail *string    `json:"customer_email,omitempty"`
	CustomerPhone *string    `json:"customer_phone,omitempty"`
	ServiceID     uuid.UUID  `json:"service_id"`
	StaffID       *uuid.UUID `json:"staff_id,omitempty"`
	StartTime     time.Time  `json:"start_time"`
	Status        string     `json:"status"`
	QueuePosition *int       `json:"queue_position,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toAppointmentResponse(a *ledger.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		CustomerName:  a.CustomerName,
		CustomerEmail: a.CustomerEmail,
		CustomerPhone: a.CustomerPhone,
		ServiceID:     a.ServiceID,
		StaffID:       a.StaffID,
		StartTime:     a.StartTime,
		Status:        string(a.Status),
		QueuePosition: a.QueuePosition,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toAppointmentResponses(as []ledger.Appointment) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(as))
	for i := range as {
		result = append(result, toAppointmentResponse(&as[i]))
	}
	return result
}

// Catalog

type StaffTypeRequest struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type StaffTypeResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

func toStaffTypeResponse(st *catalog.StaffType) StaffTypeResponse {
	return StaffTypeResponse{ID: st.ID, Name: st.Name, IsActive: st.IsActive}
}

type StaffRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	StaffTypeID   *string `json:"staff_type_id,omitempty"`
	DailyCapacity *int    `json:"daily_capacity,omitempty"`
	Availability  *string `json:"availability,omitempty"`
}

type StaffResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	StaffTypeID   uuid.UUID `json:"staff_type_id"`
	DailyCapacity int       `json:"daily_capacity"`
	Availability  string    `json:"availability"`
}

func toStaffResponse(s *catalog.Staff) StaffResponse {
	return StaffResponse{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Phone:         s.Phone,
		StaffTypeID:   s.StaffTypeID,
		DailyCapacity: s.DailyCapacity,
		Availability:  string(s.Availability),
	}
}

func toStaffResponses(ss []catalog.Staff) []StaffResponse {
	result := make([]StaffResponse, 0, len(ss))
	for i := range ss {
		result = append(result, toStaffResponse(&ss[i]))
	}
	return result
}

type ServiceRequest struct {
	Name                *string `json:"name,omitempty"`
	DurationMinutes     *int    `json:"duration_minutes,omitempty"`
	PriceCents          *int    `json:"price_cents,omitempty"`
	RequiredStaffTypeID *string `json:"required_staff_type_id,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
}

type ServiceResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	DurationMinutes     int       `json:"duration_minutes"`
	PriceCents          int       `json:"price_cents"`
	RequiredStaffTypeID uuid.UUID `json:"required_staff_type_id"`
	IsActive            bool      `json:"is_active"`
}

func toServiceResponse(svc *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:                  svc.ID,
		Name:                svc.Name,
		DurationMinutes:     svc.DurationMinutes,
		PriceCents:          svc.PriceCents,
		RequiredStaffTypeID: svc.RequiredStaffTypeID,
		IsActive:            svc.IsActive,
	}
}

// Activity and dashboard

type ActivityEntryResponse struct {
	ID            int64      `json:"id"`
	Action        string     `json:"action"`
	Actor         string     `json:"actor,omitempty"`
	Message       string     `json:"message"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type StaffLoadResponse struct {
	StaffID  uuid.UUID `json:"staff_id"`
	Name     string    `json:"name"`
	Load     int       `json:"load"`
	Capacity int       `json:"capacity"`
}

type DashboardResponse struct {
	Day            string              `json:"day"`
	TotalToday     int                 `json:"total_today"`
	ScheduledToday int                 `json:"scheduled_today"`
	CompletedToday int                 `json:"completed_today"`
	InQueue        int                 `json:"in_queue"`
	StaffLoad      []StaffLoadResponse `json:"staff_load"`
}

type TokenRequest struct {
	Subject string `json:"subject"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
