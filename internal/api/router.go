package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicore/opdflow/internal/clinic"
)

type RouterConfig struct {
	Clinic  *clinic.Clinic
	PgPool  *pgxpool.Pool // nil unless the postgres registry backend is configured
	Redis   *redis.Client // nil unless the redis registry backend is configured
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/patients", registerPatientHandler(cfg.Clinic))
	r.Get("/patients/{id}", getPatientHandler(cfg.Clinic))
	r.Post("/doctors", addDoctorHandler(cfg.Clinic))
	r.Post("/doctors/{id}/slots", addSlotHandler(cfg.Clinic))

	r.Post("/bookings", bookRoutineHandler(cfg.Clinic))
	r.Delete("/bookings/{tokenId}", cancelBookingHandler(cfg.Clinic))
	r.Post("/triage", triageInsertHandler(cfg.Clinic))
	r.Post("/serve", serveNextHandler(cfg.Clinic))
	r.Post("/undo", undoHandler(cfg.Clinic))

	r.Get("/reports/doctors", doctorReportHandler(cfg.Clinic))
	r.Get("/reports/load", loadReportHandler(cfg.Clinic))
	r.Get("/reports/frequent-patients", frequentPatientsHandler(cfg.Clinic))

	return r
}
