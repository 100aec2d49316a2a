package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/response"
)

const APIPrefix = "/booking/v1"

func New(
	cfg *config.Config,
	auth *authmw.AuthMiddleware,
	ev *handlers.EventsHandler,
	tk *handlers.TicketsHandler,
	us *handlers.UsersHandler,
	z *handlers.HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)
	r.Use(authmw.Metrics)

	if cfg.RLEnabled {
		r.Use(httprate.Limit(
			cfg.RLLimit,
			cfg.RLWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				response.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil, response.RequestID(r))
			}),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "not_found", "route not found", nil, response.RequestID(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil, response.RequestID(r))
	})

	r.Get("/healthz", z.Healthz)
	r.Get("/readyz", z.Readyz)
	r.Handle("/metrics", metrics.Handler())

	admin := authmw.RequireRole(domain.RoleAdmin)

	r.Route(APIPrefix, func(r chi.Router) {
		// public
		r.Get("/events", ev.List)
		r.Get("/events/upcoming", ev.Upcoming)
		r.Get("/events/ongoing", ev.Ongoing)
		r.With(auth.Optional).Get("/events/{event_id}", ev.Get)
		r.Get("/inventories/{event_id}", tk.GetInventory)
		r.Post("/users", us.Create)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)

			r.Post("/events", ev.Create)
			r.Patch("/events/{event_id}", ev.Update)
			r.Delete("/events/{event_id}", ev.Delete)
			r.Post("/events/{event_id}/publish", ev.Publish)
			r.Post("/events/{event_id}/start", ev.Start)
			r.Post("/events/{event_id}/complete", ev.Complete)
			r.Post("/events/{event_id}/cancel", ev.Cancel)
			r.With(admin).Post("/events/{event_id}/seats/decrease", ev.DecreaseSeats)
			r.With(admin).Post("/events/{event_id}/seats/increase", ev.IncreaseSeats)
			r.Get("/organizer/events", ev.ListMine)
			r.Get("/organizer/events/stats", ev.Stats)

			r.With(admin).Post("/inventories", tk.OpenInventory)
			r.With(admin).Post("/inventories/{event_id}/close", tk.CloseInventory)

			r.Post("/events/{event_id}/tickets", tk.Book)
			r.Get("/events/{event_id}/tickets", tk.ListByEvent)
			r.Get("/tickets/{ticket_id}", tk.Get)
			r.Post("/tickets/{ticket_id}/cancel", tk.Cancel)
			r.Get("/me/tickets", tk.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/users", us.List)
				r.Get("/users/{user_id}", us.Get)
				r.Patch("/users/{user_id}", us.Update)
				r.Delete("/users/{user_id}", us.Delete)
			})
		})
	})

	return r
}
