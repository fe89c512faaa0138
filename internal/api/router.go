package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/queuedesk/appointment-service/internal/auth"
	"github.com/queuedesk/appointment-service/internal/catalog"
	"github.com/queuedesk/appointment-service/internal/ledger"
)

var timeNow = time.Now

type RouterConfig struct {
	Ledger   *ledger.Service
	Registry *catalog.Registry
	Tokens   *auth.TokenManager // nil disables auth
	PgPool   *pgxpool.Pool      // nil on the memory store
	Redis    *redis.Client      // nil on the memory store
	Env      string
	Version  string
	Logger   *logrus.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Tokens != nil && cfg.Env == "dev" {
		r.Post("/auth/token", issueTokenHandler(cfg.Tokens))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Tokens))

		r.Route("/staff-types", func(r chi.Router) {
			r.Post("/", createStaffTypeHandler(cfg.Registry))
			r.Get("/", listStaffTypesHandler(cfg.Registry))
			r.Put("/{id}", updateStaffTypeHandler(cfg.Registry))
			r.Delete("/{id}", deleteStaffTypeHandler(cfg.Registry))
		})

		r.Route("/staff", func(r chi.Router) {
			r.Post("/", createStaffHandler(cfg.Registry))
			r.Get("/", listStaffHandler(cfg.Registry))
			r.Put("/{id}", updateStaffHandler(cfg.Registry))
			r.Delete("/{id}", deleteStaffHandler(cfg.Registry))
			r.Get("/{id}/load", staffLoadHandler(cfg.Registry))
		})

		r.Route("/services", func(r chi.Router) {
			r.Post("/", createServiceHandler(cfg.Registry))
			r.Get("/", listServicesHandler(cfg.Registry))
			r.Put("/{id}", updateServiceHandler(cfg.Registry))
			r.Delete("/{id}", deleteServiceHandler(cfg.Registry))
			r.Get("/{id}/eligible-staff", eligibleStaffHandler(cfg.Registry))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Ledger))
			r.Get("/", listAppointmentsHandler(cfg.Ledger))
			r.Get("/queue", listQueueHandler(cfg.Ledger))
			r.Get("/{id}", getAppointmentHandler(cfg.Ledger))
			r.Put("/{id}", updateAppointmentHandler(cfg.Ledger))
			r.Delete("/{id}", deleteAppointmentHandler(cfg.Ledger))
			r.Post("/{id}/status", setStatusHandler(cfg.Ledger))
			r.Post("/{id}/assign-staff/{staffId}", manualAssignHandler(cfg.Ledger))
			r.Post("/{id}/auto-assign", autoAssignHandler(cfg.Ledger))
		})

		r.Get("/activity-logs", listActivityHandler(cfg.Ledger))
		r.Get("/dashboard", dashboardHandler(cfg.Ledger))
	})

	return r
}

// issueTokenHandler mints a bearer token. Mounted in dev only; in prod
// tokens come from the deployment's identity provider.
func issueTokenHandler(tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Subject == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "subject is required")
			return
		}

		token, err := tokens.Generate(req.Subject)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, TokenResponse{Token: token})
	}
}
