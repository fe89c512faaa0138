package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/ledger"
	redisclient "github.com/queuedesk/appointment-service/internal/redis"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps domain sentinel errors onto HTTP codes. Every
// conflict-class failure carries a distinct error code so the dashboard
// can render a specific message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())

	case errors.Is(err, ledger.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, catalog.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, catalog.ErrStaffTypeNotFound):
		writeError(w, http.StatusNotFound, "staff_type_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())

	case errors.Is(err, catalog.ErrServiceInactive):
		writeError(w, http.StatusConflict, "service_inactive", err.Error())
	case errors.Is(err, catalog.ErrStaffTypeNameTaken):
		writeError(w, http.StatusConflict, "staff_type_name_taken", err.Error())
	case errors.Is(err, catalog.ErrStaffTypeInUse):
		writeError(w, http.StatusConflict, "staff_type_in_use", err.Error())
	case errors.Is(err, catalog.ErrStaffInUse):
		writeError(w, http.StatusConflict, "staff_in_use", err.Error())
	case errors.Is(err, catalog.ErrServiceInUse):
		writeError(w, http.StatusConflict, "service_in_use", err.Error())

	case errors.Is(err, ledger.ErrStaffNotEligible):
		writeError(w, http.StatusConflict, "staff_not_eligible", err.Error())
	case errors.Is(err, ledger.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, ledger.ErrTimeConflict):
		writeError(w, http.StatusConflict, "time_conflict", err.Error())
	case errors.Is(err, ledger.ErrAppointmentNotQueued):
		writeError(w, http.StatusConflict, "appointment_not_queued", err.Error())
	case errors.Is(err, ledger.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ledger.ErrNoEligibleStaff):
		writeError(w, http.StatusConflict, "no_eligible_staff", err.Error())
	case errors.Is(err, ledger.ErrStaffDayBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "staff_day_busy", "staff member is currently being booked, please retry shortly")

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
