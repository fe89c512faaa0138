package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/ledger"
)

// Staff types

func createStaffTypeHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StaffTypeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "name is required")
			return
		}

		st, err := reg.CreateStaffType(r.Context(), *req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toStaffTypeResponse(st))
	}
}

func listStaffTypesHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := reg.ListStaffTypes(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]StaffTypeResponse, 0, len(types))
		for i := range types {
			resp = append(resp, toStaffTypeResponse(&types[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateStaffTypeHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "id must be a valid UUID")
			return
		}

		var req StaffTypeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		st, err := reg.UpdateStaffType(r.Context(), id, catalog.StaffTypePatch{
			Name:     req.Name,
			IsActive: req.IsActive,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStaffTypeResponse(st))
	}
}

func deleteStaffTypeHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "id must be a valid UUID")
			return
		}

		if err := reg.DeleteStaffType(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Staff

func createStaffHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == nil || req.StaffTypeID == nil || req.DailyCapacity == nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "name, staff_type_id and daily_capacity are required")
			return
		}

		staffTypeID, err := uuid.Parse(*req.StaffTypeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "staff_type_id must be a valid UUID")
			return
		}

		availability := catalog.AvailabilityAvailable
		if req.Availability != nil {
			availability = catalog.Availability(*req.Availability)
		}

		s, err := reg.CreateStaff(r.Context(), catalog.StaffInput{
			Name:          *req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			StaffTypeID:   staffTypeID,
			DailyCapacity: *req.DailyCapacity,
			Availability:  availability,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toStaffResponse(s))
	}
}

func listStaffHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := reg.ListStaff(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStaffResponses(staff))
	}
}

func updateStaffHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}

		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := catalog.StaffPatch{
			Name:          req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			DailyCapacity: req.DailyCapacity,
		}
		if req.StaffTypeID != nil {
			staffTypeID, err := uuid.Parse(*req.StaffTypeID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "staff_type_id must be a valid UUID")
				return
			}
			patch.StaffTypeID = &staffTypeID
		}
		if req.Availability != nil {
			availability := catalog.Availability(*req.Availability)
			patch.Availability = &availability
		}

		s, err := reg.UpdateStaff(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStaffResponse(s))
	}
}

func deleteStaffHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}

		if err := reg.DeleteStaff(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func staffLoadHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "id must be a valid UUID")
			return
		}

		day := r.URL.Query().Get("date")
		if day == "" {
			day = ledger.DayOf(timeNow())
		}

		load, err := reg.StaffLoadOn(r.Context(), id, day)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"staff_id": id, "date": day, "load": load})
	}
}

// Services

func createServiceHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == nil || req.DurationMinutes == nil || req.RequiredStaffTypeID == nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "name, duration_minutes and required_staff_type_id are required")
			return
		}

		staffTypeID, err := uuid.Parse(*req.RequiredStaffTypeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "required_staff_type_id must be a valid UUID")
			return
		}

		price := 0
		if req.PriceCents != nil {
			price = *req.PriceCents
		}

		svc, err := reg.CreateService(r.Context(), catalog.ServiceInput{
			Name:                *req.Name,
			DurationMinutes:     *req.DurationMinutes,
			PriceCents:          price,
			RequiredStaffTypeID: staffTypeID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceResponse(svc))
	}
}

func listServicesHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := reg.ListServices(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for i := range services {
			resp = append(resp, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateServiceHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := catalog.ServicePatch{
			Name:            req.Name,
			DurationMinutes: req.DurationMinutes,
			PriceCents:      req.PriceCents,
			IsActive:        req.IsActive,
		}
		if req.RequiredStaffTypeID != nil {
			staffTypeID, err := uuid.Parse(*req.RequiredStaffTypeID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_type_id", "required_staff_type_id must be a valid UUID")
				return
			}
			patch.RequiredStaffTypeID = &staffTypeID
		}

		svc, err := reg.UpdateService(r.Context(), id, patch)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(svc))
	}
}

func deleteServiceHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		if err := reg.DeleteService(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func eligibleStaffHandler(reg *catalog.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseUUIDParam(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		staff, err := reg.EligibleStaffFor(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toStaffResponses(staff))
	}
}
