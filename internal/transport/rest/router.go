package rest

import (
	"log/slog"

	"github.com/frahmantamala/restaurant-ops/internal/auth"
	"github.com/frahmantamala/restaurant-ops/internal/employee"
	"github.com/frahmantamala/restaurant-ops/internal/schedule"
	"github.com/frahmantamala/restaurant-ops/internal/transport"
	"github.com/frahmantamala/restaurant-ops/internal/transport/middleware"
	"github.com/frahmantamala/restaurant-ops/internal/transport/openapi"
	"github.com/frahmantamala/restaurant-ops/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Base     *transport.BaseHandler
	Health   *HealthHandler
	Auth     *auth.Handler
	Employee *employee.Handler
	Schedule *schedule.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
	// Document enables request validation and the swagger UI when set.
	Document *openapi.Document
}

func RegisterAllRoutes(router chi.Router, h Handlers, opts RouterOptions, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(h.Base)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.Document != nil {
		router.Get("/openapi.yml", opts.Document.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Document != nil {
			r.Use(opts.Document.ValidateRequests(logger, h.Base.WriteAppError))
		}

		r.Get("/ping", h.Health.Ping)
		r.Get("/health", h.Health.Health)

		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/auth/me", h.Auth.Me)

			pr.Route("/employees", func(er chi.Router) {
				er.Get("/", h.Employee.ListEmployees)
				er.Get("/{id}", h.Employee.GetEmployee)

				er.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManageEmployees())
					mr.Post("/", h.Employee.CreateEmployee)
					mr.Put("/{id}", h.Employee.UpdateEmployee)
					mr.Delete("/{id}", h.Employee.DeleteEmployee)
					mr.Post("/{id}/deactivate", h.Employee.DeactivateEmployee)
				})
			})

			pr.Route("/shifts", func(sr chi.Router) {
				sr.Get("/", h.Schedule.ListShifts)

				sr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManageSchedule())
					mr.Post("/", h.Schedule.CreateShift)
					mr.Post("/check", h.Schedule.CheckShifts)
					mr.Delete("/{id}", h.Schedule.CancelShift)
				})
			})

			pr.Route("/time-off", func(tr chi.Router) {
				tr.Post("/", h.Schedule.CreateTimeOff)

				tr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireApproveTimeOff())
					ar.Get("/pending", h.Schedule.ListPendingTimeOff)
					ar.Patch("/{id}/decision", h.Schedule.DecideTimeOff)
				})

				// Schedulers need the conflict list too when planning around a request.
				tr.With(middleware.RequireAnyPermission(logger, h.Base.WriteAppError, auth.PermissionApproveTimeOff, auth.PermissionManageSchedule)).
					Get("/{id}/conflicts", h.Schedule.TimeOffConflicts)
			})
		})
	})
}
